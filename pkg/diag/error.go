package diag

import (
	"errors"
	"fmt"

	"src.texgraph.dev/pkg/strutil"
)

// Error represents an error with context that can be showed.
type Error[T ErrorTag] struct {
	Message string
	Context Context
	// Indicates whether the error may be caused by partial input. More
	// formally, this field is true iff there exists a string x such that
	// appending x to the source fixes the error.
	Partial bool
}

// ErrorTag is used to parameterize [Error] into different concrete types.
type ErrorTag interface {
	comparable
	ErrorTag() string
}

// Error returns a plain text representation of the error.
func (e *Error[T]) Error() string {
	return errorTag[T]() + ": " + e.Context.describeStart() + ": " + e.Message
}

// Range returns the range of the error.
func (e *Error[T]) Range() Ranging {
	return e.Context.Range()
}

var (
	messageStart = "\033[31;1m"
	messageEnd   = "\033[m"
)

// Show shows the error.
func (e *Error[T]) Show(indent string) string {
	header := fmt.Sprintf("%s: %s%s%s\n",
		strutil.Title(errorTag[T]()), messageStart, e.Message, messageEnd)
	return header + indent + "  " + e.Context.ShowCompact(indent+"  ")
}

func errorTag[T ErrorTag]() string {
	var t T
	return t.ErrorTag()
}

// UnpackErrors returns the [Error] in the chain of err as a one-element slice.
// If there is none, it returns nil.
func UnpackErrors[T ErrorTag](err error) []*Error[T] {
	var e *Error[T]
	if errors.As(err, &e) {
		return []*Error[T]{e}
	}
	return nil
}
