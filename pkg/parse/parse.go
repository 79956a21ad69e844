// Package parse implements the parser of LaTeX math expressions.
//
// Parsing happens in two stages. The tokenizer turns source text into a
// stream of tokens, resolving escape sequences through a macro trie and
// lexing the sub-clauses of constructs like \sum and \int recursively. The
// tree builder then assembles the tokens into a statement tree using a
// shunting-yard algorithm with asymmetric operator strengths.
package parse

import (
	"src.texgraph.dev/pkg/diag"
)

// Source describes a piece of source code.
type Source struct {
	Name string
	Code string
}

// SourceForTest returns a Source used for testing.
func SourceForTest(code string) Source {
	return Source{Name: "[test]", Code: code}
}

// Error is a parse error.
type Error = diag.Error[ErrorTag]

// ErrorTag parameterizes [diag.Error] to define [Error].
type ErrorTag struct{}

// ErrorTag returns "parse error".
func (ErrorTag) ErrorTag() string { return "parse error" }

func (src Source) error(r diag.Ranger, partial bool, msg string) *Error {
	return &Error{
		Message: msg,
		Context: *diag.NewContext(src.Name, src.Code, r),
		Partial: partial,
	}
}

// Parse parses the given source into a statement tree. The end of the source
// terminates the expression. The returned error always has type *Error if it
// is not nil.
//
// A tree with missing operands, such as the one for "2+", is not an error
// here; (*Node).Leaves reports it.
func Parse(src Source) (*Node, error) {
	toks, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	n, err := build(src, toks)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, src.error(diag.PointRanging(len(src.Code)), true, "empty expression")
	}
	return n, nil
}

// Tokenize converts the given source into tokens, ending with a token of kind
// End. The returned error always has type *Error if it is not nil.
func Tokenize(src Source) ([]Token, error) {
	lx := &lexer{src: src}
	lists, err := lx.lex(termEnd, false)
	if err != nil {
		return nil, err
	}
	return lists[0], nil
}

// UnpackErrors returns the parse error in the chain of e as a one-element
// slice, or nil if there is none.
func UnpackErrors(e error) []*Error {
	return diag.UnpackErrors[ErrorTag](e)
}
