package parse

import (
	"src.texgraph.dev/pkg/diag"
)

// Binding strengths of an operator or function. An operator on the stack is
// collapsed into the output tray when its right strength is no greater than
// the left strength of the incoming operator; lower numbers bind tighter.
// Prefix operators have a left strength of -1, so they never collapse
// anything when pushed.
type strength struct {
	left, right, arity int
}

var strengths = map[string]strength{
	"=": {10, 10, 2},
	"+": {6, 6, 2},
	"-": {6, 6, 2},
	// Explicit multiplication and division.
	"cdot":  {4, 4, 2},
	"times": {4, 4, 2},
	"div":   {4, 4, 2},
	"/":     {4, 4, 2},
	// Implicit multiplication binds tighter than the explicit kind, so that
	// \sin 2x is \sin(2x) while \sin x\cdot 2 is (\sin x)\cdot 2.
	"*":   {3, 3, 2},
	"neg": {-1, 3, 1},
	"^":   {0, 1, 2},
	// Fractions and roots take brace groups and give way to everything that
	// follows them.
	"frac": {-1, 0, 2},
	"sqrt": {-1, 0, 1},
	"sum":  {-1, 5, 1},
	"prod": {-1, 5, 1},
	// Constructs whose operands are all sub-clauses.
	"int":    {-1, -1, 0},
	"langle": {-1, -1, 0},
}

// Builtin functions like \sin bind through implicit multiplication but not
// through explicit operators.
var functionStrength = strength{-1, 4, 1}

func strengthOf(t Token) strength {
	if s, ok := strengths[t.Value]; ok {
		return s
	}
	if t.Kind == Function {
		return functionStrength
	}
	return strength{-1, -1, 0}
}

// Reports whether the construct takes all its operands from sub-clauses.
func isComplete(name string) bool {
	s, ok := strengths[name]
	return ok && s.arity == 0
}

var closerOf = map[string]string{"(": ")", "[": "]", "|": "|", "{": "}"}

// An entry on the operator stack: either an operator or an open bracket.
type stackEntry struct {
	tok      Token
	strength strength
	clauses  []*Node
	// Size of the tray when the entry was pushed.
	trayAt int
	// Whether the tray top was the left operand when the entry was pushed.
	hasLeft bool
	// For brackets, the expected closer and the elements collected at commas.
	closer string
	side   []*Node
}

func (e *stackEntry) isBracket() bool { return e.closer != "" }

// builder converts a token stream into a statement tree with the
// shunting-yard algorithm.
type builder struct {
	src   Source
	tray  []*Node
	stack []*stackEntry
}

// Builds the tree of one clause. It returns a nil node for an empty clause.
func build(src Source, toks []Token) (*Node, error) {
	b := &builder{src: src}
	var prev Token
	for _, tok := range toks {
		if endsValue(prev) && startsValue(tok) && !b.awaitsOperand() {
			b.pushImplicitMul(tok)
		}
		if err := b.feed(tok, prev); err != nil {
			return nil, err
		}
		prev = tok
	}
	for len(b.stack) > 0 {
		top := b.stack[len(b.stack)-1]
		if top.isBracket() {
			return nil, src.error(top.tok, true,
				"unclosed "+top.tok.Value+", should be "+top.closer)
		}
		b.collapse()
	}
	switch len(b.tray) {
	case 0:
		return nil, nil
	case 1:
		return b.tray[0], nil
	default:
		return nil, src.error(b.tray[1], false, "unexpected expression")
	}
}

func (b *builder) feed(tok, prev Token) error {
	switch tok.Kind {
	case Literal:
		b.push(&Node{Type: LiteralNode, Value: tok.Value, Num: parseNum(tok.Value),
			Ranging: tok.Ranging})
	case Constant:
		b.push(&Node{Type: ConstantNode, Value: tok.Value, Ranging: tok.Ranging})
	case Identifier:
		b.push(&Node{Type: IdentNode, Value: tok.Value, Ranging: tok.Ranging})
	case FuncIdent:
		args, err := b.clauses(tok)
		if err != nil {
			return err
		}
		b.push(&Node{Type: FuncIdentNode, Value: tok.Value, Clauses: args,
			Ranging: tok.Ranging})
	case Function, Summation:
		clauses, err := b.clauses(tok)
		if err != nil {
			return err
		}
		if isComplete(tok.Value) {
			b.push(&Node{Type: OperatorNode, Value: tok.Value, Clauses: clauses,
				Ranging: tok.Ranging})
			return nil
		}
		b.pushOperator(tok, false)
		b.stack[len(b.stack)-1].clauses = clauses
	case Operator:
		b.pushOperator(tok, endsValue(prev))
	case Open, OptOpen:
		b.stack = append(b.stack, &stackEntry{
			tok: tok, trayAt: len(b.tray), closer: closerOf[tok.Value]})
	case Comma:
		e := b.collapseToBracket()
		if e == nil || e.tok.Kind != Open {
			return b.src.error(tok, false, "unexpected comma")
		}
		e.side = append(e.side, b.takeSince(e.trayAt))
	case Close, OptClose:
		return b.close(tok)
	}
	return nil
}

func (b *builder) push(n *Node) { b.tray = append(b.tray, n) }

// Reports whether the prefix operator on top of the stack still lacks
// operands, as \frac does after the numerator of \frac12.
func (b *builder) awaitsOperand() bool {
	if len(b.stack) == 0 {
		return false
	}
	top := b.stack[len(b.stack)-1]
	return !top.isBracket() && top.strength.left < 0 &&
		len(b.tray)-top.trayAt < top.strength.arity
}

// Pushes the implicit multiplication before the next token. A function
// pending on the stack is applied before another function starts, so that
// \sin x\cos x is a product of two applications.
func (b *builder) pushImplicitMul(next Token) {
	tok := Token{Kind: Operator, Value: "*", Ranging: diag.PointRanging(next.From)}
	s := strengthOf(tok)
	if next.Kind == Function || next.Kind == Summation {
		s.left = maxInt(s.left, functionStrength.right)
	}
	b.pushWithStrength(tok, s, true)
}

func (b *builder) pushOperator(tok Token, hasLeft bool) {
	b.pushWithStrength(tok, strengthOf(tok), hasLeft)
}

func (b *builder) pushWithStrength(tok Token, s strength, hasLeft bool) {
	for len(b.stack) > 0 {
		top := b.stack[len(b.stack)-1]
		if top.isBracket() || top.strength.right > s.left {
			break
		}
		b.collapse()
	}
	b.stack = append(b.stack, &stackEntry{
		tok: tok, strength: s, trayAt: len(b.tray), hasLeft: hasLeft})
}

// Pops the operator on top of the stack and replaces its operands in the tray
// with one node. Missing operands become nil children.
func (b *builder) collapse() {
	e := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	n := &Node{Type: OperatorNode, Value: e.tok.Value, Clauses: e.clauses,
		Ranging: e.tok.Ranging}
	after := len(b.tray) - e.trayAt
	if e.strength.left >= 0 {
		// Infix operator.
		var left, right *Node
		if after > 0 {
			right = b.pop()
		}
		if e.hasLeft {
			left = b.pop()
		}
		n.Children = []*Node{left, right}
	} else {
		k := e.strength.arity
		if after < k {
			k = after
		}
		n.Children = make([]*Node, e.strength.arity)
		copy(n.Children, b.tray[len(b.tray)-k:])
		b.tray = b.tray[:len(b.tray)-k]
	}
	for _, ch := range n.Children {
		if ch != nil {
			n.From = minInt(n.From, ch.From)
			n.To = maxInt(n.To, ch.To)
		}
	}
	b.push(n)
}

func (b *builder) pop() *Node {
	n := b.tray[len(b.tray)-1]
	b.tray = b.tray[:len(b.tray)-1]
	return n
}

// Removes the tray elements pushed since the given size and returns them as
// one node, nil if there are none.
func (b *builder) takeSince(trayAt int) *Node {
	var n *Node
	if len(b.tray) > trayAt {
		n = b.tray[len(b.tray)-1]
	}
	b.tray = b.tray[:trayAt]
	return n
}

// Collapses operators down to the innermost open bracket and returns it, or
// nil if there is no open bracket.
func (b *builder) collapseToBracket() *stackEntry {
	for len(b.stack) > 0 {
		top := b.stack[len(b.stack)-1]
		if top.isBracket() {
			return top
		}
		b.collapse()
	}
	return nil
}

func (b *builder) close(tok Token) error {
	e := b.collapseToBracket()
	if e == nil {
		return b.src.error(tok, false, "mismatched closure "+quoteCloser(tok))
	}
	if e.closer != tok.Value {
		return b.src.error(tok, false,
			"mismatched closure "+quoteCloser(tok)+", should be "+e.closer)
	}
	b.stack = b.stack[:len(b.stack)-1]
	last := b.takeSince(e.trayAt)
	r := diag.MixedRanging(e.tok, tok)
	switch {
	case len(e.side) > 0:
		elems := append(e.side, last)
		name := "vector"
		if e.closer == "]" {
			name = "array"
		} else if e.closer != ")" {
			return b.src.error(r, false, "malformed vector clause")
		}
		b.push(&Node{Type: OperatorNode, Value: name, Children: elems, Ranging: r})
	case e.closer == "]":
		var elems []*Node
		if last != nil {
			elems = []*Node{last}
		}
		b.push(&Node{Type: OperatorNode, Value: "array", Children: elems, Ranging: r})
	case e.closer == "|":
		b.push(&Node{Type: OperatorNode, Value: "abs", Children: []*Node{last}, Ranging: r})
	default:
		b.tray = append(b.tray, last)
		if e.closer == ")" {
			b.collapseApplication()
		}
	}
	return nil
}

// Collapses a function like \sin immediately after its parenthesized
// argument, so that \sin(x)^2 squares the sine.
func (b *builder) collapseApplication() {
	if len(b.stack) == 0 {
		return
	}
	top := b.stack[len(b.stack)-1]
	if top.tok.Kind == Function && top.strength == functionStrength {
		b.collapse()
	}
}

func (b *builder) clauses(tok Token) ([]*Node, error) {
	if len(tok.Clauses) == 0 {
		return nil, nil
	}
	nodes := make([]*Node, len(tok.Clauses))
	for i, toks := range tok.Clauses {
		n, err := build(b.src, toks)
		if err != nil {
			return nil, err
		}
		nodes[i] = n
	}
	return nodes, nil
}

func quoteCloser(tok Token) string {
	if tok.Value == "rangle" {
		return `'\rangle'`
	}
	return "'" + tok.Value + "'"
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
