package graph

import (
	"fmt"
)

// Rows of the context.
const (
	// Coordinates, time and formal parameters.
	freeRow = iota
	// Indices of sums and products, and variables of integration.
	boundRow
)

const nLetters = 26

// Context is the array of letter slots shared by the evaluators taking part
// in one computation.
type Context struct {
	slots [2][nLetters]float64
}

// Returns the column of a single lowercase letter.
func letterCol(name string) (int, bool) {
	if len(name) == 1 && 'a' <= name[0] && name[0] <= 'z' {
		return int(name[0] - 'a'), true
	}
	return 0, false
}

// Sets a slot and returns a function that restores its old value.
func (c *Context) bind(row, col int, v float64) func() {
	old := c.slots[row][col]
	c.slots[row][col] = v
	return func() { c.slots[row][col] = old }
}

type evalFn func(*Context) (Value, error)

type callFn func(c *Context, args []Value) (Value, error)

// RefKind tags the variants of reference entries.
type RefKind int

// Possible values of RefKind.
const (
	// A snapshot of the value of a constant.
	LiteralRef RefKind = iota
	// The evaluator of another variable.
	CallableRef
	// A slot of the context.
	AddressRef
)

var refKindNames = [...]string{
	LiteralRef: "Literal", CallableRef: "Callable", AddressRef: "Address",
}

func (k RefKind) String() string {
	if k < 0 || int(k) >= len(refKindNames) {
		return fmt.Sprintf("RefKind(%d)", int(k))
	}
	return refKindNames[k]
}

// An entry of the reference table of a variable, through which its evaluator
// reaches one dependency.
type ref struct {
	kind     RefKind
	literal  Value
	call     callFn
	row, col int
}

func literalRef(v Value) ref { return ref{kind: LiteralRef, literal: v} }

func callableRef(f callFn) ref { return ref{kind: CallableRef, call: f} }

func addressRef(row, col int) ref { return ref{kind: AddressRef, row: row, col: col} }

// A callable for a name without a definition.
func danglingRef(name string) ref {
	return callableRef(func(*Context, []Value) (Value, error) {
		return nil, undefinedError(name)
	})
}

// Reads the referenced value.
func (r ref) get(c *Context) (Value, error) {
	switch r.kind {
	case LiteralRef:
		return r.literal, nil
	case AddressRef:
		return c.slots[r.row][r.col], nil
	default:
		return r.call(c, nil)
	}
}

// Applies the referenced value to arguments. Applying a number multiplies it
// by the only argument.
func (r ref) apply(c *Context, args []Value) (Value, error) {
	if r.kind == CallableRef {
		return r.call(c, args)
	}
	v, err := r.get(c)
	if err != nil {
		return nil, err
	}
	return multiplyArg(v, args)
}

func multiplyArg(v Value, args []Value) (Value, error) {
	switch len(args) {
	case 0:
		return v, nil
	case 1:
		return mul(v, args[0])
	}
	return nil, fmt.Errorf("%s cannot take %d arguments", Repr(v), len(args))
}
