package parse

import (
	"fmt"

	"src.texgraph.dev/pkg/diag"
)

// TokenKind classifies tokens.
type TokenKind int

// Possible values of TokenKind.
const (
	None TokenKind = iota
	Literal
	Constant
	Identifier
	// An identifier immediately followed by an opening parenthesis. Its
	// arguments are kept as sub-clauses.
	FuncIdent
	// A builtin function like \sin or \frac.
	Function
	// \sum, \prod and \int.
	Summation
	Operator
	Open
	Close
	// Braces, which group without producing a value of their own.
	OptOpen
	OptClose
	Comma
	End
)

var tokenKindNames = [...]string{
	None: "None", Literal: "Literal", Constant: "Constant",
	Identifier: "Identifier", FuncIdent: "FuncIdent", Function: "Function",
	Summation: "Summation", Operator: "Operator", Open: "Open", Close: "Close",
	OptOpen: "OptOpen", OptClose: "OptClose", Comma: "Comma", End: "End",
}

func (k TokenKind) String() string {
	if k < 0 || int(k) >= len(tokenKindNames) {
		return fmt.Sprintf("TokenKind(%d)", int(k))
	}
	return tokenKindNames[k]
}

// Token is a unit produced by the tokenizer.
type Token struct {
	Kind TokenKind
	// Canonical content: the number text of a literal, the name of an
	// identifier, or the macro name of a function without the backslash.
	Value string
	diag.Ranging
	// Number of sub-clauses the construct requires; -1 when the count depends
	// on the input, as with function arguments and vector components.
	NClauses int
	Clauses  [][]Token
}

func (t Token) String() string {
	if len(t.Clauses) == 0 {
		return fmt.Sprintf("%v(%s)", t.Kind, t.Value)
	}
	return fmt.Sprintf("%v(%s)%v", t.Kind, t.Value, t.Clauses)
}

// Reports whether a token of this kind may end an operand, so that an
// operand that follows is multiplied implicitly.
func endsValue(t Token) bool {
	switch t.Kind {
	case Close, OptClose, Identifier, FuncIdent, Literal, Constant:
		return true
	case Function, Summation:
		return isComplete(t.Value)
	}
	return false
}

// Reports whether a token of this kind may start an operand that can be
// multiplied implicitly with the preceding one.
func startsValue(t Token) bool {
	switch t.Kind {
	case Identifier, Function, FuncIdent, Literal, Constant, Open, Summation:
		return true
	}
	return false
}
