package graph

import (
	"errors"

	"src.texgraph.dev/pkg/parse"
)

// GuessLabel returns the default label of a statement.
//
// For an equality, it is the name on a side that is a bare identifier or a
// function identifier not occurring on the other side; the free names x, y,
// z and t are never default labels. For other statements, it is the only
// identifier that occurs exactly once, provided that it is not defined yet.
func (e *Env) GuessLabel(n *parse.Node) (string, error) {
	if n == nil {
		return "", resolutionErrorf(ErrNoDefinition, "", nil, "empty statement")
	}
	if n.IsEquation() {
		for i, side := range n.Children {
			name, ok := definedName(side)
			if !ok || parse.IsFreeName(name) {
				continue
			}
			occurs, err := occursIn(name, n.Children[1-i])
			if err != nil {
				return "", err
			}
			if !occurs {
				return name, nil
			}
		}
		return "", resolutionErrorf(ErrNoLabel, "", n, "no side of the equality names a definition")
	}

	leaves, err := leavesOf(n, "")
	if err != nil {
		return "", err
	}
	counts := make(map[string]int)
	var names []string
	for _, leaf := range leaves {
		if !isName(leaf) || parse.IsFreeName(leaf.Value) {
			continue
		}
		if counts[leaf.Value] == 0 {
			names = append(names, leaf.Value)
		}
		counts[leaf.Value]++
	}
	var once []string
	for _, name := range names {
		if counts[name] == 1 {
			once = append(once, name)
		}
	}
	if len(once) == 1 {
		if v, ok := e.vars[once[0]]; !ok || v.Kind == Unresolved {
			return once[0], nil
		}
	}
	return "", resolutionErrorf(ErrNoLabel, "", n, "no identifier names the statement")
}

// ResolveEquation defines the variable named by the label with the
// statement, which is either an explicit equality like f(x)=x^{2} or an
// expression. The direct dependents of the variable are updated.
//
// On failure, the variable keeps its last good definition. Placeholders
// created for the dependencies of the statement are not removed.
func (e *Env) ResolveEquation(label string, n *parse.Node) error {
	if n == nil {
		return resolutionErrorf(ErrNoDefinition, label, nil, "empty statement")
	}
	if label == "" {
		return resolutionErrorf(ErrInvalidLabel, label, nil, "empty label")
	}
	if parse.IsFreeName(label) {
		return resolutionErrorf(ErrInvalidLabel, label, nil, "%s is a free variable", label)
	}
	if _, err := leavesOf(n, label); err != nil {
		return err
	}
	body, parameterized, params, err := splitDefinition(label, n)
	if err != nil {
		return err
	}

	v := e.variable(label)
	def, err := compile(v, label, body, params)
	if err != nil {
		return err
	}
	for _, name := range def.nameOf {
		e.variable(name)
	}
	if e.reaches(def.deps, label) {
		return resolutionErrorf(ErrCycle, label, n, "%s depends on itself", label)
	}

	e.commit(v, def, parameterized, params)
	logger.Printf("defined %s as %v with dependencies %v", label, v.Kind, v.nameOf)
	e.propagate(v)
	e.collect()
	return nil
}

// DeleteDefinition removes the definition of a variable. If other variables
// depend on it, it becomes an unresolved placeholder and their references to
// it evaluate to ErrUndefined until it is defined again; otherwise it is
// removed.
func (e *Env) DeleteDefinition(name string) error {
	v, ok := e.vars[name]
	if !ok || v.Kind == Unresolved {
		return resolutionErrorf(ErrNoDefinition, name, nil, "%s is not defined", name)
	}
	for dep := range v.deps {
		delete(e.vars[dep].dependents, name)
	}
	*v = Variable{Name: name, dependents: v.dependents, handle: v.handle}
	if len(v.dependents) == 0 {
		delete(e.vars, name)
		logger.Printf("deleted %s", name)
	} else {
		logger.Printf("deleted %s, kept as placeholder for %v", name, v.Dependents())
	}
	v.handle.rebuild()
	e.propagate(v)
	e.collect()
	return nil
}

// Returns the leaves of a statement, converting an incomplete expression
// into a *ResolutionError.
func leavesOf(n *parse.Node, label string) ([]*parse.Node, error) {
	leaves, err := n.Leaves()
	if err != nil {
		var incomplete *parse.IncompleteError
		if errors.As(err, &incomplete) {
			return nil, resolutionErrorf(ErrIncomplete, label, incomplete, "missing operand")
		}
		return nil, err
	}
	return leaves, nil
}

func isName(n *parse.Node) bool {
	return n.Type == parse.IdentNode || n.Type == parse.FuncIdentNode
}

// Returns the name a side of an equality defines, if it is an identifier or
// a function identifier.
func definedName(side *parse.Node) (string, bool) {
	if isName(side) {
		return side.Value, true
	}
	return "", false
}

func occursIn(name string, n *parse.Node) (bool, error) {
	leaves, err := leavesOf(n, "")
	if err != nil {
		return false, err
	}
	for _, leaf := range leaves {
		if isName(leaf) && leaf.Value == name {
			return true, nil
		}
	}
	return false, nil
}

// Splits a statement into the expression that defines the label and the
// formal parameters. An equality must be explicit: one side names the
// definition and does not occur on the other side.
func splitDefinition(label string, n *parse.Node) (body *parse.Node, parameterized bool, params []string, err error) {
	if !n.IsEquation() {
		return n, false, nil, nil
	}
	for i, side := range n.Children {
		name, ok := definedName(side)
		if !ok {
			continue
		}
		other := n.Children[1-i]
		if occurs, _ := occursIn(name, other); occurs {
			continue
		}
		if !parse.IsFreeName(name) && name != label {
			return nil, false, nil, resolutionErrorf(ErrInvalidLabel, label, side,
				"the statement defines %s", name)
		}
		if side.Type != parse.FuncIdentNode {
			return other, false, nil, nil
		}
		params, err := paramsOf(label, side)
		return other, true, params, err
	}
	return nil, false, nil, resolutionErrorf(ErrImplicit, label, n, "neither side is a name absent from the other")
}

func paramsOf(label string, side *parse.Node) ([]string, error) {
	params := make([]string, 0, len(side.Clauses))
	seen := make(map[string]bool)
	for _, cl := range side.Clauses {
		switch cl.Type {
		case parse.FuncIdentNode:
			return nil, resolutionErrorf(ErrBadParams, label, cl, "nested parameter list")
		case parse.IdentNode:
			if _, ok := letterCol(cl.Value); !ok {
				return nil, resolutionErrorf(ErrBadParams, label, cl,
					"parameter %s is not a single lowercase letter", cl.Value)
			}
		default:
			return nil, resolutionErrorf(ErrBadParams, label, cl, "parameter is not a name")
		}
		if seen[cl.Value] {
			return nil, resolutionErrorf(ErrBadParams, label, cl, "duplicate parameter %s", cl.Value)
		}
		seen[cl.Value] = true
		params = append(params, cl.Value)
	}
	return params, nil
}

// Reports whether the target is among the dependencies, direct or
// transitive.
func (e *Env) reaches(deps map[string]bool, target string) bool {
	visited := make(map[string]bool)
	var visit func(name string) bool
	visit = func(name string) bool {
		if name == target {
			return true
		}
		if visited[name] {
			return false
		}
		visited[name] = true
		if v, ok := e.vars[name]; ok {
			for dep := range v.deps {
				if visit(dep) {
					return true
				}
			}
		}
		return false
	}
	for dep := range deps {
		if visit(dep) {
			return true
		}
	}
	return false
}

// Replaces the definition of a variable. Its dependents are kept.
func (e *Env) commit(v *Variable, def *definition, parameterized bool, params []string) {
	for dep := range v.deps {
		delete(e.vars[dep].dependents, v.Name)
	}
	v.deps, v.slotOf, v.nameOf = def.deps, def.slotOf, def.nameOf
	for dep := range v.deps {
		e.vars[dep].dependents[v.Name] = true
	}
	v.refs = make([]ref, len(v.nameOf))
	for _, dep := range v.nameOf {
		v.refresh(e, dep)
	}
	v.eval, v.shape = def.eval, def.shape
	v.Parameterized, v.Params = parameterized, params
	v.Text = ""
	if len(v.deps) > 0 || parameterized {
		v.Kind = Function
		v.value, v.valueErr = nil, nil
	} else {
		v.Kind = Constant
		v.cacheValue()
	}
	v.handle.rebuild()
}

// Recomputes the references of the direct dependents of a variable that has
// changed. Dependents of dependents are not visited.
func (e *Env) propagate(v *Variable) {
	for _, name := range v.Dependents() {
		d := e.vars[name]
		d.refresh(e, v.Name)
		d.handle.rebuild()
		logger.Printf("refreshed %s after change to %s", name, v.Name)
	}
}

// Removes unresolved placeholders that nothing depends on.
func (e *Env) collect() {
	for name, v := range e.vars {
		if v.Kind == Unresolved && len(v.dependents) == 0 {
			delete(e.vars, name)
		}
	}
}
