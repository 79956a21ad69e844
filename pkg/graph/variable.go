package graph

import (
	"fmt"
	"sort"

	"src.texgraph.dev/pkg/parse"
)

// Kind is the resolution state of a variable.
type Kind int

// Possible values of Kind.
const (
	// A placeholder for a name that is referenced but not defined.
	Unresolved Kind = iota
	// A definition without dependencies.
	Constant
	// A definition with dependencies or parameters.
	Function
)

var kindNames = [...]string{Unresolved: "unresolved", Constant: "constant", Function: "function"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Variable is a named node of the dependency graph.
type Variable struct {
	Name string
	Kind Kind
	// Whether the variable was defined with a function identifier like
	// f(a,b), in which case Params holds the formal parameters.
	Parameterized bool
	Params        []string
	// Source text of the definition, if known.
	Text string

	// Dependency names, mapped to whether any access is in function position.
	deps map[string]bool
	// Names of variables that depend on this one.
	dependents map[string]bool
	// The reference table and its inverse maps.
	refs   []ref
	slotOf map[string]int
	nameOf []string

	eval evalFn
	// Shape of the definition, as far as it can be told from the tree.
	shape shape
	// Cached value of a constant.
	value    Value
	valueErr error

	handle *Handle
}

type shape int

const (
	scalarShape shape = iota
	vectorShape
	arrayShape
)

func newVariable(name string) *Variable {
	v := &Variable{Name: name, dependents: make(map[string]bool)}
	v.handle = newHandle(v)
	return v
}

// Dependencies returns the names the definition depends on, each mapped to
// whether it is accessed in function position.
func (v *Variable) Dependencies() map[string]bool {
	deps := make(map[string]bool, len(v.deps))
	for name, fn := range v.deps {
		deps[name] = fn
	}
	return deps
}

// Dependents returns the names of the variables depending on v, sorted.
func (v *Variable) Dependents() []string { return sortedKeys(v.dependents) }

// Handle returns the evaluation handle of the variable. The handle stays the
// same across redefinitions.
func (v *Variable) Handle() *Handle { return v.handle }

// RefKind returns the kind of the reference entry for a dependency.
func (v *Variable) RefKind(dep string) (RefKind, bool) {
	i, ok := v.slotOf[dep]
	if !ok {
		return 0, false
	}
	return v.refs[i].kind, true
}

// Recomputes the reference entry for one dependency.
func (v *Variable) refresh(e *Env, dep string) {
	i, ok := v.slotOf[dep]
	if !ok {
		return
	}
	v.refs[i] = e.refFor(dep, v.deps[dep])
}

func (e *Env) refFor(name string, funcAccess bool) ref {
	if parse.IsFreeName(name) {
		col, _ := letterCol(name)
		return addressRef(freeRow, col)
	}
	d := e.vars[name]
	switch {
	case d == nil || d.Kind == Unresolved:
		return danglingRef(name)
	case d.Kind == Constant && d.valueErr != nil:
		err := d.valueErr
		return callableRef(func(*Context, []Value) (Value, error) { return nil, err })
	case d.Kind == Constant && !funcAccess:
		return literalRef(d.value)
	case d.Kind == Constant:
		value := d.value
		return callableRef(func(_ *Context, args []Value) (Value, error) {
			return multiplyArg(value, args)
		})
	default:
		return callableRef(d.caller())
	}
}

// Returns a function that calls the current evaluator of a function
// variable. The arguments are bound to the formal parameters, or to the
// coordinates x and y if there are none.
func (v *Variable) caller() callFn {
	eval, cols := v.eval, v.argCols()
	name := v.Name
	return func(c *Context, args []Value) (Value, error) {
		if len(args) > len(cols) {
			return nil, fmt.Errorf("%s takes at most %d arguments, got %d",
				name, len(cols), len(args))
		}
		for i, arg := range args {
			f, err := ToNum(arg)
			if err != nil {
				return nil, fmt.Errorf("argument %d of %s: %w", i+1, name, err)
			}
			defer c.bind(freeRow, cols[i], f)()
		}
		return eval(c)
	}
}

var positionalParams = []string{"x", "y"}

// Returns the columns that positional arguments are bound to.
func (v *Variable) argCols() []int {
	params := positionalParams
	if v.Parameterized {
		params = v.Params
	}
	cols := make([]int, len(params))
	for i, p := range params {
		cols[i], _ = letterCol(p)
	}
	return cols
}

// Evaluates the definition with an empty context and caches the result.
func (v *Variable) cacheValue() {
	v.value, v.valueErr = v.eval(new(Context))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
