package parse

import "strings"

// Pprint returns a compact representation of a statement tree as an
// s-expression. Identifiers are prefixed with $ and sub-clauses are written
// in brackets after the operator name; missing parts are written as _.
//
// Examples: "(+ 1 (* 2 $x))", "(sum[(= $n 1) 10] $n)", "(func$f 1 2)".
func Pprint(n *Node) string {
	var sb strings.Builder
	pprint(&sb, n)
	return sb.String()
}

func pprint(sb *strings.Builder, n *Node) {
	if n == nil {
		sb.WriteString("_")
		return
	}
	switch n.Type {
	case LiteralNode, ConstantNode:
		sb.WriteString(n.Value)
	case IdentNode:
		sb.WriteString("$" + n.Value)
	case FuncIdentNode:
		sb.WriteString("(func$" + n.Value)
		for _, arg := range n.Clauses {
			sb.WriteByte(' ')
			pprint(sb, arg)
		}
		sb.WriteByte(')')
	case OperatorNode:
		sb.WriteString("(" + n.Value)
		if len(n.Clauses) > 0 {
			sb.WriteByte('[')
			for i, cl := range n.Clauses {
				if i > 0 {
					sb.WriteByte(' ')
				}
				pprint(sb, cl)
			}
			sb.WriteByte(']')
		}
		for _, ch := range n.Children {
			sb.WriteByte(' ')
			pprint(sb, ch)
		}
		sb.WriteByte(')')
	}
}
