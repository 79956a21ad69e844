package graph

import (
	"fmt"
	"math"

	"src.texgraph.dev/pkg/diag"
	"src.texgraph.dev/pkg/parse"
)

// Number of intervals of the Simpson rule used for integrals.
const simpsonIntervals = 512

// Upper limit of the number of terms of a sum or product.
const maxTerms = 1_000_000

// The result of compiling a definition, to be committed to its variable.
type definition struct {
	eval   evalFn
	deps   map[string]bool
	slotOf map[string]int
	nameOf []string
	shape  shape
}

// compiler turns a statement tree into a tree of closures. The closures read
// dependencies through the reference table of the target variable, so the
// table must have the layout of the definition when they are run.
type compiler struct {
	label  string
	v      *Variable
	params map[string]bool
	// Bound variables in scope, with the depth of their bindings.
	bound  map[string]int
	deps   map[string]bool
	slotOf map[string]int
	nameOf []string
}

func compile(v *Variable, label string, body *parse.Node, params []string) (def *definition, err error) {
	cp := &compiler{
		label: label, v: v,
		params: make(map[string]bool), bound: make(map[string]int),
		deps: make(map[string]bool), slotOf: make(map[string]int)}
	for _, p := range params {
		cp.params[p] = true
	}
	defer func() {
		r := recover()
		if r == nil {
			return
		} else if e, ok := r.(*ResolutionError); ok {
			err = e
		} else {
			panic(r)
		}
	}()
	eval := cp.compile(body)
	return &definition{eval, cp.deps, cp.slotOf, cp.nameOf, shapeOf(body)}, nil
}

func shapeOf(n *parse.Node) shape {
	if n.Type == parse.OperatorNode {
		switch n.Value {
		case "vector", "langle":
			return vectorShape
		case "array":
			return arrayShape
		}
	}
	return scalarShape
}

func (cp *compiler) errorpf(r diag.Ranger, format string, args ...any) {
	// The panic is caught by the recover in compile above.
	panic(resolutionErrorf(ErrMalformed, cp.label, r, format, args...))
}

// Records a dependency and returns its slot in the reference table.
func (cp *compiler) dep(name string, funcAccess bool) int {
	cp.deps[name] = cp.deps[name] || funcAccess
	if i, ok := cp.slotOf[name]; ok {
		return i
	}
	i := len(cp.nameOf)
	cp.slotOf[name] = i
	cp.nameOf = append(cp.nameOf, name)
	return i
}

// Returns the context address of a local name: a bound variable in scope or
// a formal parameter.
func (cp *compiler) local(name string) (row, col int, ok bool) {
	col, isLetter := letterCol(name)
	switch {
	case !isLetter:
		return 0, 0, false
	case cp.bound[name] > 0:
		return boundRow, col, true
	case cp.params[name]:
		return freeRow, col, true
	}
	return 0, 0, false
}

func (cp *compiler) compile(n *parse.Node) evalFn {
	switch n.Type {
	case parse.LiteralNode:
		num := n.Num
		return func(*Context) (Value, error) { return num, nil }
	case parse.ConstantNode:
		get, ok := constants[n.Value]
		if !ok {
			cp.errorpf(n, "unknown constant %s", n.Value)
		}
		return func(*Context) (Value, error) { return get() }
	case parse.IdentNode:
		return cp.ident(n)
	case parse.FuncIdentNode:
		return cp.funcIdent(n)
	default:
		return cp.operator(n)
	}
}

func (cp *compiler) ident(n *parse.Node) evalFn {
	if row, col, ok := cp.local(n.Value); ok {
		return func(c *Context) (Value, error) { return c.slots[row][col], nil }
	}
	v, i := cp.v, cp.dep(n.Value, false)
	return func(c *Context) (Value, error) { return v.refs[i].get(c) }
}

func (cp *compiler) funcIdent(n *parse.Node) evalFn {
	args := cp.compileAll(n.Clauses)
	evalArgs := func(c *Context) ([]Value, error) {
		vals := make([]Value, len(args))
		for i, arg := range args {
			v, err := arg(c)
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		return vals, nil
	}
	if row, col, ok := cp.local(n.Value); ok {
		return func(c *Context) (Value, error) {
			vals, err := evalArgs(c)
			if err != nil {
				return nil, err
			}
			return multiplyArg(c.slots[row][col], vals)
		}
	}
	v, i := cp.v, cp.dep(n.Value, true)
	return func(c *Context) (Value, error) {
		vals, err := evalArgs(c)
		if err != nil {
			return nil, err
		}
		return v.refs[i].apply(c, vals)
	}
}

func (cp *compiler) compileAll(ns []*parse.Node) []evalFn {
	fns := make([]evalFn, len(ns))
	for i, n := range ns {
		fns[i] = cp.compile(n)
	}
	return fns
}

func (cp *compiler) operator(n *parse.Node) evalFn {
	switch n.Value {
	case "=":
		cp.errorpf(n, "unexpected equality")
	case "vector":
		return vectorOf(cp.compileAll(n.Children))
	case "langle":
		return vectorOf(cp.compileAll(n.Clauses))
	case "array":
		elems := cp.compileAll(n.Children)
		return func(c *Context) (Value, error) {
			arr := make(Array, len(elems))
			for i, elem := range elems {
				v, err := elem(c)
				if err != nil {
					return nil, err
				}
				arr[i] = v
			}
			return arr, nil
		}
	case "sum", "prod":
		return cp.summation(n)
	case "int":
		return cp.integral(n)
	case "sqrt":
		if len(n.Clauses) == 1 {
			return binary(root, cp.compile(n.Children[0]), cp.compile(n.Clauses[0]))
		}
	case "log":
		if len(n.Clauses) == 1 {
			return binary(logBase, cp.compile(n.Children[0]), cp.compile(n.Clauses[0]))
		}
		return unary(log10, cp.compile(n.Children[0]))
	}

	name := canonicalName(n.Value)
	switch len(n.Children) {
	case 1:
		f, ok := unaryPrims[name]
		if !ok {
			break
		}
		operand := cp.compile(n.Children[0])
		if len(n.Clauses) == 1 {
			// A power like the 2 in \sin^{2}x.
			return binary(pow, unary(f, operand), cp.compile(n.Clauses[0]))
		}
		return unary(f, operand)
	case 2:
		if f, ok := binaryPrims[name]; ok {
			return binary(f, cp.compile(n.Children[0]), cp.compile(n.Children[1]))
		}
	}
	cp.errorpf(n, "unsupported operation %s", n.Value)
	panic("unreachable")
}

func unary(f unaryFn, a evalFn) evalFn {
	return func(c *Context) (Value, error) {
		va, err := a(c)
		if err != nil {
			return nil, err
		}
		return f(va)
	}
}

func binary(f binaryFn, a, b evalFn) evalFn {
	return func(c *Context) (Value, error) {
		va, err := a(c)
		if err != nil {
			return nil, err
		}
		vb, err := b(c)
		if err != nil {
			return nil, err
		}
		return f(va, vb)
	}
}

func vectorOf(comps []evalFn) evalFn {
	return func(c *Context) (Value, error) {
		vec := make(Vector, len(comps))
		for i, comp := range comps {
			v, err := comp(c)
			if err != nil {
				return nil, err
			}
			f, err := ToNum(v)
			if err != nil {
				return nil, fmt.Errorf("component %d: %w", i+1, err)
			}
			vec[i] = f
		}
		return vec, nil
	}
}

// Compiles the operand with a bound variable in scope.
func (cp *compiler) withBound(name string, n *parse.Node) evalFn {
	cp.bound[name]++
	defer func() { cp.bound[name]-- }()
	return cp.compile(n)
}

func (cp *compiler) boundVar(n *parse.Node, what string) (string, int) {
	if n.Type == parse.IdentNode {
		if col, ok := letterCol(n.Value); ok {
			return n.Value, col
		}
	}
	cp.errorpf(n, "%s must be a single lowercase letter", what)
	panic("unreachable")
}

func (cp *compiler) summation(n *parse.Node) evalFn {
	lower := n.Clauses[0]
	if !lower.IsEquation() {
		cp.errorpf(lower, `lower bound of \%s must have the form n=1`, n.Value)
	}
	name, col := cp.boundVar(lower.Children[0], "index of \\"+n.Value)
	lo, hi := cp.compile(lower.Children[1]), cp.compile(n.Clauses[1])
	body := cp.withBound(name, n.Children[0])
	op, acc0 := add, 0.0
	if n.Value == "prod" {
		op, acc0 = mul, 1.0
	}
	what := `\` + n.Value
	return func(c *Context) (Value, error) {
		from, err := intBound(c, lo, what)
		if err != nil {
			return nil, err
		}
		to, err := intBound(c, hi, what)
		if err != nil {
			return nil, err
		}
		if to-from >= maxTerms {
			return nil, fmt.Errorf("%s has too many terms", what)
		}
		var acc Value = acc0
		for k := from; k <= to; k++ {
			restore := c.bind(boundRow, col, k)
			term, err := body(c)
			restore()
			if err != nil {
				return nil, err
			}
			if acc, err = op(acc, term); err != nil {
				return nil, err
			}
		}
		return acc, nil
	}
}

func intBound(c *Context, bound evalFn, what string) (float64, error) {
	v, err := bound(c)
	if err != nil {
		return 0, err
	}
	f, err := ToNum(v)
	if err != nil {
		return 0, fmt.Errorf("bound of %s: %w", what, err)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("bounds of %s must be integers, got %v", what, f)
	}
	return f, nil
}

func (cp *compiler) integral(n *parse.Node) evalFn {
	name, col := cp.boundVar(n.Clauses[3], "variable of integration")
	lo, hi := cp.compile(n.Clauses[0]), cp.compile(n.Clauses[1])
	integrand := cp.withBound(name, n.Clauses[2])
	return func(c *Context) (Value, error) {
		var bounds [2]float64
		for i, bound := range []evalFn{lo, hi} {
			v, err := bound(c)
			if err != nil {
				return nil, err
			}
			if bounds[i], err = ToNum(v); err != nil {
				return nil, fmt.Errorf(`bound of \int: %w`, err)
			}
		}
		f := func(t float64) (float64, error) {
			restore := c.bind(boundRow, col, t)
			defer restore()
			v, err := integrand(c)
			if err != nil {
				return 0, err
			}
			return ToNum(v)
		}
		return simpson(f, bounds[0], bounds[1], simpsonIntervals)
	}
}

// Integrates f over [a, b] with the composite Simpson rule. The number of
// intervals must be even.
func simpson(f func(float64) (float64, error), a, b float64, intervals int) (Value, error) {
	h := (b - a) / float64(intervals)
	sum := 0.0
	for i := 0; i <= intervals; i++ {
		y, err := f(a + float64(i)*h)
		if err != nil {
			return nil, err
		}
		switch {
		case i == 0 || i == intervals:
			sum += y
		case i%2 == 1:
			sum += 4 * y
		default:
			sum += 2 * y
		}
	}
	return sum * h / 3, nil
}
