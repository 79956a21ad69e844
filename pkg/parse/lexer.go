package parse

import (
	"strings"
	"unicode/utf8"

	"src.texgraph.dev/pkg/diag"
)

type charClass int

const (
	classSymbol charClass = iota
	classDigit
	classPoint
	classLetter
	classSpace
	// Letters that denote constants: Euler's number and the imaginary unit.
	classConstant
)

func classify(c byte) charClass {
	switch {
	case c == 'e' || c == 'i':
		return classConstant
	case '0' <= c && c <= '9':
		return classDigit
	case c == '.':
		return classPoint
	case isLetter(c):
		return classLetter
	case c == ' ' || c == '\t' || c == '\n' || c == '\r':
		return classSpace
	}
	return classSymbol
}

func isLetter(c byte) bool { return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' }

func isAlnum(c byte) bool { return isLetter(c) || '0' <= c && c <= '9' }

var freeNames = map[string]bool{"x": true, "y": true, "z": true, "t": true}

// IsFreeName reports whether name is one of x, y, z and t. These always
// denote free variables and never start a function application.
func IsFreeName(name string) bool { return freeNames[name] }

// A terminator recognizes the end of a clause.
type terminator struct {
	desc string
	// Returns the length of the terminator at the start of s, or -1 if s
	// does not start with one.
	match func(s string) int
	isEnd bool
}

func prefixMatcher(prefixes ...string) func(string) int {
	return func(s string) int {
		for _, p := range prefixes {
			if strings.HasPrefix(s, p) {
				return len(p)
			}
		}
		return -1
	}
}

var (
	termEnd = terminator{"end of input", func(s string) int {
		if s == "" {
			return 0
		}
		return -1
	}, true}
	termBrace   = terminator{"'}'", prefixMatcher("}"), false}
	termParen   = terminator{`'\right)'`, prefixMatcher(`\right)`, ")"), false}
	termBracket = terminator{"']'", prefixMatcher("]"), false}
	termRangle  = terminator{`'\rangle'`, prefixMatcher(`\rangle`), false}
	// The d of a differential like dx. The variable is left in the input.
	termDiff = terminator{"a differential like dx", func(s string) int {
		if len(s) >= 2 && s[0] == 'd' && isLetter(s[1]) {
			return 1
		}
		return -1
	}, false}
)

// lexer converts source text into tokens.
type lexer struct {
	src Source
	pos int
	// Number of upcoming tokens limited to a single character. Set after ^,
	// \sqrt and \frac when no brace follows.
	single int
}

func (lx *lexer) rest() string { return lx.src.Code[lx.pos:] }

func (lx *lexer) atEnd() bool { return lx.pos >= len(lx.src.Code) }

func (lx *lexer) peek() byte {
	if lx.atEnd() {
		return 0
	}
	return lx.src.Code[lx.pos]
}

func (lx *lexer) token(kind TokenKind, value string, begin int) Token {
	return Token{Kind: kind, Value: value, Ranging: diag.Ranging{From: begin, To: lx.pos}}
}

// Skips whitespace and spacing commands like \, and \quad.
func (lx *lexer) skipSpaces() {
	for !lx.atEnd() {
		c := lx.peek()
		if classify(c) == classSpace {
			lx.pos++
			continue
		}
		if c == '\\' {
			if m, n := macroTrie.lookup(lx.rest()[1:]); m != nil && m.kind == None {
				lx.pos += 1 + n
				continue
			}
		}
		return
	}
}

// Limits the next n tokens to one character unless a brace follows.
func (lx *lexer) limitNext(n int) {
	lx.skipSpaces()
	if lx.peek() != '{' {
		lx.single = n
	}
}

// Lexes a clause up to the given terminator, which is consumed. When
// splitCommas is true, the clause is split into a list at top-level commas;
// an empty list yields no clauses at all. Otherwise exactly one token list is
// returned.
func (lx *lexer) lex(term terminator, splitCommas bool) ([][]Token, error) {
	var lists [][]Token
	var cur []Token
	var prev Token
	depth, bars := 0, 0
	for {
		lx.skipSpaces()
		// Unbalanced brackets at the end of input are reported by the
		// tree builder.
		if depth == 0 || term.isEnd {
			if n := term.match(lx.rest()); n >= 0 {
				begin := lx.pos
				lx.pos += n
				if term.isEnd {
					cur = append(cur, Token{Kind: End, Ranging: diag.PointRanging(begin)})
				}
				if splitCommas && len(lists) == 0 && len(cur) == 0 {
					return nil, nil
				}
				return append(lists, cur), nil
			}
		}
		if lx.atEnd() {
			return nil, lx.src.error(diag.PointRanging(lx.pos), true,
				"unterminated clause, should be "+term.desc)
		}
		tok, err := lx.next(prev.Kind)
		if err != nil {
			return nil, err
		}
		if tok.Kind == Open && tok.Value == "|" {
			// A plain bar closes the innermost open bar when it follows an
			// operand.
			if bars > 0 && endsValue(prev) && lx.src.Code[tok.From] == '|' {
				tok.Kind = Close
			}
		}
		switch tok.Kind {
		case Open, OptOpen:
			depth++
			if tok.Value == "|" {
				bars++
			}
		case Close, OptClose:
			if depth > 0 {
				depth--
			}
			if tok.Value == "|" && bars > 0 {
				bars--
			}
		case Comma:
			if splitCommas && depth == 0 {
				lists = append(lists, cur)
				cur = nil
				prev = tok
				continue
			}
		}
		cur = append(cur, tok)
		prev = tok
	}
}

// Produces the next token. The kind of the previous token decides whether a
// minus sign is a negation or a subtraction.
func (lx *lexer) next(prev TokenKind) (Token, error) {
	lx.skipSpaces()
	begin := lx.pos
	if lx.atEnd() {
		return Token{Kind: End, Ranging: diag.PointRanging(begin)}, nil
	}
	single := lx.single > 0
	if single {
		lx.single--
	}
	c := lx.peek()
	switch classify(c) {
	case classDigit, classPoint:
		return lx.number(begin, single)
	case classConstant:
		lx.pos++
		return lx.token(Constant, string(c), begin), nil
	case classLetter:
		lx.pos++
		return lx.identifier(string(c), begin, single)
	}
	return lx.symbol(prev, begin)
}

func (lx *lexer) number(begin int, single bool) (Token, error) {
	seenPoint := false
	for !lx.atEnd() {
		c := lx.peek()
		if c == '.' {
			if seenPoint {
				// A second point terminates the literal.
				break
			}
			seenPoint = true
		} else if classify(c) != classDigit {
			break
		}
		lx.pos++
		if single {
			break
		}
	}
	if text := lx.src.Code[begin:lx.pos]; text != "." {
		return lx.token(Literal, text, begin), nil
	}
	return Token{}, lx.src.error(diag.Ranging{From: begin, To: lx.pos}, false,
		"unexpected character '.'")
}

func (lx *lexer) identifier(name string, begin int, single bool) (Token, error) {
	if !single && lx.peek() == '_' {
		lx.pos++
		sub, err := lx.subscript()
		if err != nil {
			return Token{}, err
		}
		name += "_" + sub
	}
	if !single && !freeNames[name] {
		if n := openParenLen(lx.rest()); n > 0 {
			lx.pos += n
			args, err := lx.lex(termParen, true)
			if err != nil {
				return Token{}, err
			}
			tok := lx.token(FuncIdent, name, begin)
			tok.NClauses = -1
			tok.Clauses = args
			return tok, nil
		}
	}
	return lx.token(Identifier, name, begin), nil
}

func openParenLen(s string) int {
	switch {
	case strings.HasPrefix(s, `\left(`):
		return len(`\left(`)
	case strings.HasPrefix(s, "("):
		return 1
	}
	return 0
}

// Lexes the subscript of an identifier after the _: either one character or
// a brace-delimited run.
func (lx *lexer) subscript() (string, error) {
	begin := lx.pos
	if lx.atEnd() {
		return "", lx.src.error(diag.PointRanging(begin), true, "missing subscript")
	}
	if lx.peek() != '{' {
		c := lx.peek()
		if !isAlnum(c) {
			return "", lx.src.error(diag.Ranging{From: begin, To: begin + 1}, false,
				"invalid subscript")
		}
		lx.pos++
		return string(c), nil
	}
	end := strings.IndexByte(lx.rest(), '}')
	if end == -1 {
		return "", lx.src.error(diag.PointRanging(len(lx.src.Code)), true,
			"unterminated subscript, should be '}'")
	}
	sub := lx.rest()[1:end]
	lx.pos += end + 1
	if sub == "" || strings.IndexFunc(sub, func(r rune) bool {
		return r >= utf8.RuneSelf || !isAlnum(byte(r))
	}) != -1 {
		return "", lx.src.error(diag.Ranging{From: begin, To: lx.pos}, false,
			"invalid subscript")
	}
	return sub, nil
}

func negates(prev TokenKind) bool {
	switch prev {
	case None, Operator, Open, OptOpen, Comma:
		return true
	}
	return false
}

func (lx *lexer) symbol(prev TokenKind, begin int) (Token, error) {
	c := lx.peek()
	if c == '\\' {
		return lx.escape(begin)
	}
	if c >= utf8.RuneSelf {
		r, size := utf8.DecodeRuneInString(lx.rest())
		return Token{}, lx.src.error(diag.Ranging{From: begin, To: begin + size}, false,
			"unexpected character "+quoteRune(r))
	}
	lx.pos++
	switch c {
	case '+', '/', '=':
		return lx.token(Operator, string(c), begin), nil
	case '*':
		return lx.token(Operator, "cdot", begin), nil
	case '-':
		if negates(prev) {
			return lx.token(Operator, "neg", begin), nil
		}
		return lx.token(Operator, "-", begin), nil
	case '^':
		tok := lx.token(Operator, "^", begin)
		lx.limitNext(1)
		return tok, nil
	case '(', '[', '|':
		return lx.token(Open, string(c), begin), nil
	case ')', ']':
		return lx.token(Close, string(c), begin), nil
	case '{':
		return lx.token(OptOpen, "{", begin), nil
	case '}':
		return lx.token(OptClose, "}", begin), nil
	case ',':
		return lx.token(Comma, ",", begin), nil
	case '_':
		return Token{}, lx.src.error(diag.Ranging{From: begin, To: lx.pos}, false,
			"unexpected subscript")
	}
	return Token{}, lx.src.error(diag.Ranging{From: begin, To: lx.pos}, false,
		"unexpected character "+quoteRune(rune(c)))
}

func quoteRune(r rune) string {
	return "'" + string(r) + "'"
}

func (lx *lexer) escape(begin int) (Token, error) {
	m, n := macroTrie.lookup(lx.rest()[1:])
	if m == nil {
		name := escapeName(lx.rest()[1:])
		return Token{}, lx.src.error(
			diag.Ranging{From: begin, To: begin + 1 + len(name)}, name == "",
			`unknown escape sequence \`+name)
	}
	lx.pos += 1 + n
	if m.unimplemented {
		return Token{}, lx.src.error(diag.Ranging{From: begin, To: lx.pos}, false,
			`unimplemented clause kind \`+m.name)
	}
	switch m.kind {
	case Identifier:
		return lx.identifier(m.name, begin, false)
	case Function:
		return lx.function(m, begin)
	case Summation:
		return lx.summation(m, begin)
	}
	tok := lx.token(m.kind, m.name, begin)
	tok.NClauses = m.nClauses
	return tok, nil
}

func escapeName(s string) string {
	i := 0
	for i < len(s) && isLetter(s[i]) {
		i++
	}
	if i == 0 && len(s) > 0 {
		_, i = utf8.DecodeRuneInString(s)
	}
	return s[:i]
}

func (lx *lexer) function(m *macro, begin int) (Token, error) {
	tok := Token{Kind: Function, Value: m.name, NClauses: m.nClauses}
	switch m.name {
	case "langle":
		comps, err := lx.lex(termRangle, true)
		if err != nil {
			return Token{}, err
		}
		if len(comps) == 0 {
			return Token{}, lx.src.error(diag.Ranging{From: begin, To: lx.pos}, false,
				"malformed vector clause: no components")
		}
		for _, comp := range comps {
			if len(comp) == 0 {
				return Token{}, lx.src.error(diag.Ranging{From: begin, To: lx.pos}, false,
					"malformed vector clause: empty component")
			}
		}
		tok.Clauses = comps
	case "sqrt":
		lx.skipSpaces()
		if lx.peek() == '[' {
			lx.pos++
			index, err := lx.lex(termBracket, false)
			if err != nil {
				return Token{}, err
			}
			tok.Clauses = index
		}
	case "log":
		lx.skipSpaces()
		if lx.peek() == '_' {
			lx.pos++
			base, err := lx.script()
			if err != nil {
				return Token{}, err
			}
			tok.Clauses = [][]Token{base}
		}
	case "frac", "ln", "exp":
	default:
		// Trigonometric functions take a power, as in \sin^{2}x.
		lx.skipSpaces()
		if lx.peek() == '^' {
			lx.pos++
			power, err := lx.script()
			if err != nil {
				return Token{}, err
			}
			tok.Clauses = [][]Token{power}
		}
	}
	tok.Ranging = diag.Ranging{From: begin, To: lx.pos}
	switch m.name {
	case "sqrt":
		lx.limitNext(1)
	case "frac":
		lx.limitNext(2)
	}
	return tok, nil
}

// Lexes the argument of ^ or _, either a brace-delimited clause or a single
// token.
func (lx *lexer) script() ([]Token, error) {
	lx.skipSpaces()
	if lx.peek() == '{' {
		lx.pos++
		lists, err := lx.lex(termBrace, false)
		if err != nil {
			return nil, err
		}
		return lists[0], nil
	}
	if lx.atEnd() {
		return nil, lx.src.error(diag.PointRanging(lx.pos), true, "missing superscript or subscript")
	}
	lx.single = 1
	tok, err := lx.next(None)
	if err != nil {
		return nil, err
	}
	return []Token{tok}, nil
}

func (lx *lexer) summation(m *macro, begin int) (Token, error) {
	tok := Token{Kind: Summation, Value: m.name, NClauses: m.nClauses}
	var lower, upper []Token
	hasLower, hasUpper := false, false
	for i := 0; i < 2; i++ {
		lx.skipSpaces()
		var err error
		switch {
		case lx.peek() == '_' && !hasLower:
			lx.pos++
			lower, err = lx.script()
			hasLower = true
		case lx.peek() == '^' && !hasUpper:
			lx.pos++
			upper, err = lx.script()
			hasUpper = true
		}
		if err != nil {
			return Token{}, err
		}
	}
	if !hasLower || !hasUpper {
		return Token{}, lx.src.error(diag.Ranging{From: begin, To: lx.pos}, lx.atEnd(),
			`\`+m.name+" requires a lower and an upper bound")
	}
	tok.Clauses = [][]Token{lower, upper}
	if m.name == "int" {
		integrand, err := lx.lex(termDiff, false)
		if err != nil {
			return Token{}, err
		}
		varBegin := lx.pos
		lx.pos++
		variable := lx.token(Identifier, lx.src.Code[varBegin:lx.pos], varBegin)
		tok.Clauses = append(tok.Clauses, integrand[0], []Token{variable})
	}
	tok.Ranging = diag.Ranging{From: begin, To: lx.pos}
	return tok, nil
}
