package parse

import "sort"

// A macro is what an escape sequence like \sin resolves to.
type macro struct {
	name     string
	kind     TokenKind
	nClauses int
	// Recognized, but there is no support for the construct yet.
	unimplemented bool
}

// Escape sequences without the leading backslash. Spacing commands resolve
// to kind None and are skipped by the tokenizer.
var macros = map[string]macro{
	" ": {kind: None}, ",": {kind: None}, ":": {kind: None},
	";": {kind: None}, "!": {kind: None}, "quad": {kind: None},
	"qquad": {kind: None},

	"left(": {name: "(", kind: Open}, "right)": {name: ")", kind: Close},
	"left[": {name: "[", kind: Open}, "right]": {name: "]", kind: Close},
	"left|": {name: "|", kind: Open}, "right|": {name: "|", kind: Close},
	"langle": {name: "langle", kind: Function, nClauses: -1},
	"rangle": {name: "rangle", kind: Close},

	"cdot": {name: "cdot", kind: Operator}, "times": {name: "times", kind: Operator},
	"div": {name: "div", kind: Operator},

	"frac": {name: "frac", kind: Function}, "sqrt": {name: "sqrt", kind: Function},
	"sin": {name: "sin", kind: Function}, "cos": {name: "cos", kind: Function},
	"tan": {name: "tan", kind: Function}, "cot": {name: "cot", kind: Function},
	"sec": {name: "sec", kind: Function}, "csc": {name: "csc", kind: Function},
	"arcsin": {name: "arcsin", kind: Function}, "arccos": {name: "arccos", kind: Function},
	"arctan": {name: "arctan", kind: Function}, "sinh": {name: "sinh", kind: Function},
	"cosh": {name: "cosh", kind: Function}, "tanh": {name: "tanh", kind: Function},
	"ln": {name: "ln", kind: Function}, "log": {name: "log", kind: Function},
	"exp": {name: "exp", kind: Function},

	"sum":  {name: "sum", kind: Summation, nClauses: 2},
	"prod": {name: "prod", kind: Summation, nClauses: 2},
	"int":  {name: "int", kind: Summation, nClauses: 4},

	"pi": {name: "pi", kind: Constant}, "infty": {name: "infty", kind: Constant},

	"lim":          {name: "lim", kind: Summation, unimplemented: true},
	"begin":        {name: "begin", kind: Function, unimplemented: true},
	"operatorname": {name: "operatorname", kind: Function, unimplemented: true},
}

var greekLetters = []string{
	"alpha", "beta", "gamma", "delta", "epsilon", "varepsilon", "zeta", "eta",
	"theta", "vartheta", "iota", "kappa", "lambda", "mu", "nu", "xi", "rho",
	"sigma", "tau", "upsilon", "phi", "varphi", "chi", "psi", "omega",
}

var macroTrie *trieNode

func init() {
	for _, name := range greekLetters {
		macros[name] = macro{name: name, kind: Identifier}
	}
	macroTrie = newTrie(macros)
}

// A trie keyed by the bytes of escape sequences.
type trieNode struct {
	children map[byte]*trieNode
	m        *macro
}

func newTrie(ms map[string]macro) *trieNode {
	root := &trieNode{}
	for seq, m := range ms {
		m := m
		n := root
		for i := 0; i < len(seq); i++ {
			if n.children == nil {
				n.children = make(map[byte]*trieNode)
			}
			child, ok := n.children[seq[i]]
			if !ok {
				child = &trieNode{}
				n.children[seq[i]] = child
			}
			n = child
		}
		n.m = &m
	}
	return root
}

// Finds the longest escape sequence that is a prefix of s. It returns the
// macro and the length of the sequence, or nil and 0 if there is none.
func (t *trieNode) lookup(s string) (*macro, int) {
	var found *macro
	foundLen := 0
	n := t
	for i := 0; i < len(s); i++ {
		n = n.children[s[i]]
		if n == nil {
			break
		}
		if n.m != nil {
			found, foundLen = n.m, i+1
		}
	}
	return found, foundLen
}

// MacroNames returns the escape sequences understood by the tokenizer,
// without the leading backslash, in sorted order. Spacing commands and
// sequences that end in a bracket are left out.
func MacroNames() []string {
	var names []string
	for seq, m := range macros {
		if m.kind == None || m.unimplemented || !isLetter(seq[len(seq)-1]) {
			continue
		}
		names = append(names, seq)
	}
	sort.Strings(names)
	return names
}
