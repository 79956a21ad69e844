package graph

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is the result of an evaluation. It is a float64, a Vector or an
// Array.
type Value any

// Vector is a list of numbers, built from \left(a,b\right) or
// \langle a,b\rangle.
type Vector []float64

// Array is a list of arbitrary values, built from \left[a,b\right].
type Array []Value

var errNotNumber = errors.New("not a number")

// ToNum converts a Value to a float64. It fails if the value is not a number.
func ToNum(v Value) (float64, error) {
	if f, ok := v.(float64); ok {
		return f, nil
	}
	return 0, fmt.Errorf("%w: %s", errNotNumber, Repr(v))
}

// Repr returns a textual representation of a value.
func Repr(v Value) string {
	switch v := v.(type) {
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case Vector:
		parts := make([]string, len(v))
		for i, f := range v {
			parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case Array:
		parts := make([]string, len(v))
		for i, elem := range v {
			parts[i] = Repr(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case nil:
		return "nil"
	}
	return fmt.Sprintf("<%T>", v)
}

type unaryFn func(Value) (Value, error)
type binaryFn func(a, b Value) (Value, error)

// Lifts a numeric function to values. Vectors are mapped elementwise, as are
// arrays.
func lift1(name string, f func(float64) float64) unaryFn {
	var g unaryFn
	g = func(a Value) (Value, error) {
		switch a := a.(type) {
		case float64:
			return f(a), nil
		case Vector:
			r := make(Vector, len(a))
			for i, x := range a {
				r[i] = f(x)
			}
			return r, nil
		case Array:
			return mapArray(a, g)
		}
		return nil, fmt.Errorf("%s: unsupported operand %s", name, Repr(a))
	}
	return g
}

// Lifts a binary numeric function to values. Scalars are broadcast over
// vectors, vectors of the same length are combined elementwise, and arrays
// are mapped over.
func lift2(name string, f func(a, b float64) float64) binaryFn {
	var g binaryFn
	g = func(a, b Value) (Value, error) {
		if a, ok := a.(Array); ok {
			return mapArray(a, func(x Value) (Value, error) { return g(x, b) })
		}
		if b, ok := b.(Array); ok {
			return mapArray(b, func(y Value) (Value, error) { return g(a, y) })
		}
		switch a := a.(type) {
		case float64:
			switch b := b.(type) {
			case float64:
				return f(a, b), nil
			case Vector:
				r := make(Vector, len(b))
				for i, y := range b {
					r[i] = f(a, y)
				}
				return r, nil
			}
		case Vector:
			switch b := b.(type) {
			case float64:
				r := make(Vector, len(a))
				for i, x := range a {
					r[i] = f(x, b)
				}
				return r, nil
			case Vector:
				if len(a) != len(b) {
					return nil, fmt.Errorf("%s: vectors of lengths %d and %d",
						name, len(a), len(b))
				}
				r := make(Vector, len(a))
				for i := range a {
					r[i] = f(a[i], b[i])
				}
				return r, nil
			}
		}
		return nil, fmt.Errorf("%s: unsupported operands %s and %s", name, Repr(a), Repr(b))
	}
	return g
}

func mapArray(a Array, f unaryFn) (Value, error) {
	r := make(Array, len(a))
	for i, elem := range a {
		v, err := f(elem)
		if err != nil {
			return nil, err
		}
		r[i] = v
	}
	return r, nil
}

var (
	add   = lift2("add", func(a, b float64) float64 { return a + b })
	sub   = lift2("sub", func(a, b float64) float64 { return a - b })
	scale = lift2("mul", func(a, b float64) float64 { return a * b })
	div   = lift2("div", func(a, b float64) float64 { return a / b })
	pow   = lift2("pow", math.Pow)
	neg   = lift1("neg", func(a float64) float64 { return -a })
)

// Multiplication. The product of two vectors is their dot product.
func mul(a, b Value) (Value, error) {
	if a, ok := a.(Vector); ok {
		if b, ok := b.(Vector); ok {
			if len(a) != len(b) {
				return nil, fmt.Errorf("mul: vectors of lengths %d and %d", len(a), len(b))
			}
			sum := 0.0
			for i := range a {
				sum += a[i] * b[i]
			}
			return sum, nil
		}
	}
	return scale(a, b)
}

// The cross product of two 3-vectors; otherwise multiplication.
func cross(a, b Value) (Value, error) {
	if a, ok := a.(Vector); ok {
		if b, ok := b.(Vector); ok {
			if len(a) != 3 || len(b) != 3 {
				return nil, errors.New("cross: operands must be 3-vectors")
			}
			return Vector{
				a[1]*b[2] - a[2]*b[1],
				a[2]*b[0] - a[0]*b[2],
				a[0]*b[1] - a[1]*b[0],
			}, nil
		}
	}
	return mul(a, b)
}

// The absolute value of a number, or the norm of a vector.
func abs(a Value) (Value, error) {
	if a, ok := a.(Vector); ok {
		sum := 0.0
		for _, x := range a {
			sum += x * x
		}
		return math.Sqrt(sum), nil
	}
	return absElem(a)
}

var absElem = lift1("abs", math.Abs)

// The n-th root.
func root(a, n Value) (Value, error) {
	return lift2("root", func(x, n float64) float64 {
		if n == 3 {
			return math.Cbrt(x)
		}
		if x < 0 && math.Mod(n, 2) == 1 {
			return -math.Pow(-x, 1/n)
		}
		return math.Pow(x, 1/n)
	})(a, n)
}

var log10 = lift1("log", math.Log10)

// The logarithm with the given base.
func logBase(a, base Value) (Value, error) {
	return lift2("log", func(x, b float64) float64 { return math.Log(x) / math.Log(b) })(a, base)
}

// Named unary primitives.
var unaryPrims = map[string]unaryFn{
	"neg":    neg,
	"sqrt":   lift1("sqrt", math.Sqrt),
	"sin":    lift1("sin", math.Sin),
	"cos":    lift1("cos", math.Cos),
	"tan":    lift1("tan", math.Tan),
	"cot":    lift1("cot", func(x float64) float64 { return 1 / math.Tan(x) }),
	"sec":    lift1("sec", func(x float64) float64 { return 1 / math.Cos(x) }),
	"csc":    lift1("csc", func(x float64) float64 { return 1 / math.Sin(x) }),
	"arcsin": lift1("arcsin", math.Asin),
	"arccos": lift1("arccos", math.Acos),
	"arctan": lift1("arctan", math.Atan),
	"sinh":   lift1("sinh", math.Sinh),
	"cosh":   lift1("cosh", math.Cosh),
	"tanh":   lift1("tanh", math.Tanh),
	"log":    lift1("log", math.Log),
	"exp":    lift1("exp", math.Exp),
	"abs":    abs,
}

// Named binary primitives.
var binaryPrims = map[string]binaryFn{
	"add":   add,
	"sub":   sub,
	"mul":   mul,
	"div":   div,
	"pow":   pow,
	"cross": cross,
	"root":  root,
	"logb":  logBase,
}

// Surface names of operators and functions that differ from the names of
// their primitives.
var aliases = map[string]string{
	"+":     "add",
	"-":     "sub",
	"cdot":  "mul",
	"*":     "mul",
	"times": "cross",
	"/":     "div",
	"div":   "div",
	"frac":  "div",
	"^":     "pow",
	"ln":    "log",
}

func canonicalName(name string) string {
	if alias, ok := aliases[name]; ok {
		return alias
	}
	return name
}

var errComplex = errors.New("complex numbers are not supported")

// Named constants.
var constants = map[string]func() (Value, error){
	"pi":    func() (Value, error) { return math.Pi, nil },
	"e":     func() (Value, error) { return math.E, nil },
	"infty": func() (Value, error) { return math.Inf(1), nil },
	"i":     func() (Value, error) { return nil, errComplex },
}
