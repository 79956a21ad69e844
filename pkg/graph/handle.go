package graph

import (
	"fmt"
)

// VisType tells how the graph of a variable is drawn.
type VisType int

// Possible values of VisType.
const (
	VisNone VisType = iota
	VisCartesian
	VisVector
	VisParametricSurface
	VisParametricCurve
	VisVectorField
	VisGroup
)

var visTypeNames = [...]string{
	VisNone: "none", VisCartesian: "cartesian", VisVector: "vector",
	VisParametricSurface: "parametric-surface", VisParametricCurve: "parametric-curve",
	VisVectorField: "vector-field", VisGroup: "group",
}

func (t VisType) String() string {
	if t < 0 || int(t) >= len(visTypeNames) {
		return fmt.Sprintf("VisType(%d)", int(t))
	}
	return visTypeNames[t]
}

// Handle is the stable evaluation surface of a variable. A variable keeps
// the same handle through redefinitions; what changes is the computer
// behind it.
type Handle struct {
	v        *Variable
	computer computer
	visible  bool
	visType  VisType
	timeDep  bool
	onUpdate []func(*Handle)
}

// One of the ways of computing the value of a variable.
type computer interface {
	compute(args []float64) (Value, error)
}

func newHandle(v *Variable) *Handle {
	return &Handle{v: v, computer: undefinedComputer{v.Name}, visible: true}
}

// Name returns the name of the variable.
func (h *Handle) Name() string { return h.v.Name }

// Compute evaluates the variable. A constant takes no arguments. A function
// binds the arguments to its formal parameters, or to x and y if it has
// none.
func (h *Handle) Compute(args ...float64) (Value, error) {
	return h.computer.compute(args)
}

// Num is like Compute, but requires the result to be a number.
func (h *Handle) Num(args ...float64) (float64, error) {
	v, err := h.Compute(args...)
	if err != nil {
		return 0, err
	}
	return ToNum(v)
}

// VisType returns the kind of graph the variable is drawn as.
func (h *Handle) VisType() VisType { return h.visType }

// TimeDependent reports whether the variable depends on the time t.
func (h *Handle) TimeDependent() bool { return h.timeDep }

// Visible reports whether the graph of the variable is shown.
func (h *Handle) Visible() bool { return h.visible }

// SetVisible shows or hides the graph of the variable.
func (h *Handle) SetVisible(visible bool) { h.visible = visible }

// OnUpdate registers a callback to run after the variable is recompiled,
// which happens when it is defined, redefined or deleted, and when one of
// its direct dependencies changes.
func (h *Handle) OnUpdate(f func(*Handle)) {
	h.onUpdate = append(h.onUpdate, f)
}

// Rebuilds the handle after the variable changes and runs the callbacks.
func (h *Handle) rebuild() {
	v := h.v
	switch {
	case v.Kind == Unresolved:
		h.computer = undefinedComputer{v.Name}
	case v.Kind == Constant:
		h.computer = valueComputer{v.value, v.valueErr}
	case v.Parameterized:
		h.computer = &parameterizedComputer{v.caller(), len(v.Params)}
	default:
		h.computer = &positionalComputer{v.caller()}
	}
	h.visType = visTypeOf(v)
	_, h.timeDep = v.deps["t"]
	for _, f := range h.onUpdate {
		f(h)
	}
}

func visTypeOf(v *Variable) VisType {
	switch v.Kind {
	case Unresolved:
		return VisNone
	case Constant:
		switch v.value.(type) {
		case Vector:
			return VisVector
		case Array:
			return VisGroup
		}
		return VisNone
	}
	switch v.shape {
	case arrayShape:
		return VisGroup
	case vectorShape:
		if v.Parameterized {
			switch len(v.Params) {
			case 1:
				return VisParametricCurve
			case 2:
				return VisParametricSurface
			}
		}
		for _, coord := range []string{"x", "y", "z"} {
			if _, ok := v.deps[coord]; ok {
				return VisVectorField
			}
		}
		return VisVector
	}
	return VisCartesian
}

type undefinedComputer struct{ name string }

func (c undefinedComputer) compute([]float64) (Value, error) {
	return nil, undefinedError(c.name)
}

type valueComputer struct {
	value Value
	err   error
}

func (c valueComputer) compute(args []float64) (Value, error) {
	if len(args) > 0 {
		return nil, fmt.Errorf("a constant takes no arguments, got %d", len(args))
	}
	return c.value, c.err
}

// Binds up to two arguments to the coordinates x and y.
type positionalComputer struct {
	call callFn
}

func (c *positionalComputer) compute(args []float64) (Value, error) {
	return c.call(new(Context), numArgs(args))
}

// Binds arguments to the formal parameters in order.
type parameterizedComputer struct {
	call    callFn
	nParams int
}

func (c *parameterizedComputer) compute(args []float64) (Value, error) {
	if len(args) > c.nParams {
		return nil, fmt.Errorf("takes at most %d arguments, got %d", c.nParams, len(args))
	}
	return c.call(new(Context), numArgs(args))
}

func numArgs(args []float64) []Value {
	vals := make([]Value, len(args))
	for i, arg := range args {
		vals[i] = arg
	}
	return vals
}
