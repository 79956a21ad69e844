package parse

import (
	"fmt"
	"strconv"

	"src.texgraph.dev/pkg/diag"
)

// NodeType is the type tag of a statement tree node.
type NodeType int

// Possible values of NodeType.
const (
	LiteralNode NodeType = iota
	IdentNode
	FuncIdentNode
	OperatorNode
	ConstantNode
)

var nodeTypeTags = [...]string{
	LiteralNode: "#", IdentNode: "$", FuncIdentNode: "func$",
	OperatorNode: "op", ConstantNode: "const",
}

func (t NodeType) String() string {
	if t < 0 || int(t) >= len(nodeTypeTags) {
		return fmt.Sprintf("NodeType(%d)", int(t))
	}
	return nodeTypeTags[t]
}

// Node is a node of a statement tree.
type Node struct {
	Type NodeType
	// The number text of a literal, the name of an identifier or constant, or
	// the name of an operator or function.
	Value string
	// The value of a literal.
	Num float64
	// Operands. A nil element is an operand missing from the source.
	Children []*Node
	// Sub-clauses, like the bounds of a sum or the arguments of a function
	// identifier. A nil element is an empty clause.
	Clauses []*Node
	diag.Ranging
}

// IncompleteError is returned by Leaves when the tree has missing operands.
type IncompleteError struct {
	// The node with a missing child or clause.
	Node *Node
}

func (e *IncompleteError) Error() string {
	return "incomplete expression"
}

// Range returns the range of the node with the missing part.
func (e *IncompleteError) Range() diag.Ranging { return e.Node.Range() }

// IsLeaf reports whether the node is a terminal: a literal, a constant, an
// identifier or a function identifier. The arguments of a function
// identifier are sub-clauses and not children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 && n.Type != OperatorNode }

// Leaves returns the leaves of the tree, walking the children of each node
// before its sub-clauses, recursively. It fails with an *IncompleteError if
// any child or sub-clause is missing.
func (n *Node) Leaves() ([]*Node, error) {
	var leaves []*Node
	err := n.walkLeaves(func(leaf *Node) { leaves = append(leaves, leaf) })
	if err != nil {
		return nil, err
	}
	return leaves, nil
}

func (n *Node) walkLeaves(f func(*Node)) error {
	if n.IsLeaf() {
		f(n)
	}
	for _, ch := range n.Children {
		if ch == nil {
			return &IncompleteError{n}
		}
		if err := ch.walkLeaves(f); err != nil {
			return err
		}
	}
	for _, cl := range n.Clauses {
		if cl == nil {
			return &IncompleteError{n}
		}
		if err := cl.walkLeaves(f); err != nil {
			return err
		}
	}
	return nil
}

// IsEquation reports whether the node is an equality.
func (n *Node) IsEquation() bool {
	return n.Type == OperatorNode && n.Value == "=" && len(n.Children) == 2
}

// Literals are made of digits and at most one point, so ParseFloat can only
// fail on overflow, in which case it returns ±Inf.
func parseNum(text string) float64 {
	f, _ := strconv.ParseFloat(text, 64)
	return f
}
