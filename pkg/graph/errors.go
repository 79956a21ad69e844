package graph

import (
	"errors"
	"fmt"

	"src.texgraph.dev/pkg/diag"
)

// Kinds of resolution errors. A *ResolutionError matches its kind with
// errors.Is.
var (
	ErrNoLabel      = errors.New("no default label")
	ErrNoDefinition = errors.New("no definition")
	ErrIncomplete   = errors.New("incomplete expression")
	ErrInvalidLabel = errors.New("invalid label")
	ErrBadParams    = errors.New("malformed parameter list")
	ErrImplicit     = errors.New("implicit definitions are not supported")
	ErrCycle        = errors.New("circular definition")
	ErrMalformed    = errors.New("malformed definition")
)

// ErrUndefined is returned when evaluating a reference to a name without a
// definition.
var ErrUndefined = errors.New("undefined")

// ResolutionError is returned when a definition cannot be resolved. The
// target variable is left in its last good state.
type ResolutionError struct {
	Kind   error
	Label  string
	Detail string
	// The part of the statement the error is about. Zero when the error is
	// about the statement as a whole.
	diag.Ranging
}

func (e *ResolutionError) Error() string {
	msg := e.Kind.Error()
	if e.Label != "" {
		msg = e.Label + ": " + msg
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ResolutionError) Unwrap() error { return e.Kind }

func resolutionErrorf(kind error, label string, r diag.Ranger, format string, args ...any) *ResolutionError {
	e := &ResolutionError{Kind: kind, Label: label, Detail: fmt.Sprintf(format, args...)}
	if r != nil {
		e.Ranging = r.Range()
	}
	return e
}

func undefinedError(name string) error {
	return fmt.Errorf("%w: %s", ErrUndefined, name)
}
