// Package graph implements the dependency graph of named definitions.
//
// Each definition is compiled into a tree of closures. A closure reaches the
// other variables it depends on through the reference table of its variable,
// which holds one entry per dependency: a snapshot of a constant's value, the
// evaluator of a function, or an address in the shared context. When a
// variable is redefined, the corresponding entries of its direct dependents
// are recomputed.
//
// An Env is not safe for concurrent use.
package graph

import (
	"src.texgraph.dev/pkg/logutil"
	"src.texgraph.dev/pkg/parse"
)

var logger = logutil.GetLogger("[graph] ")

// Env holds the variables of a session.
type Env struct {
	vars map[string]*Variable
}

// NewEnv returns an empty Env.
func NewEnv() *Env {
	return &Env{vars: make(map[string]*Variable)}
}

// Lookup returns the variable with the given name.
func (e *Env) Lookup(name string) (*Variable, bool) {
	v, ok := e.vars[name]
	return v, ok
}

// Names returns the names of all variables, including unresolved ones, in
// sorted order.
func (e *Env) Names() []string { return sortedKeys(e.vars) }

// Define parses the text and resolves it under the label. If the label is
// empty, it is guessed from the statement. It returns the label used.
func (e *Env) Define(label, text string) (string, error) {
	name := label
	if name == "" {
		name = "[definition]"
	}
	n, err := parse.Parse(parse.Source{Name: name, Code: text})
	if err != nil {
		return "", err
	}
	if label == "" {
		label, err = e.GuessLabel(n)
		if err != nil {
			return "", err
		}
	}
	if err := e.ResolveEquation(label, n); err != nil {
		return label, err
	}
	e.vars[label].Text = text
	return label, nil
}

// Returns the variable with the given name, creating a placeholder if there
// is none.
func (e *Env) variable(name string) *Variable {
	v, ok := e.vars[name]
	if !ok {
		v = newVariable(name)
		e.vars[name] = v
	}
	return v
}
