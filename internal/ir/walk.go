package ir

// Walk visits every node of the forest in depth-first pre-order using an
// explicit stack. fn receives the node and its depth (roots are depth 0).
// Returning false from fn skips the node's children.
func Walk(roots []*SyntaxNode, fn func(n *SyntaxNode, depth int) bool) {
	type frame struct {
		node  *SyntaxNode
		depth int
	}
	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: roots[i]})
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.node == nil {
			continue
		}
		if !fn(top.node, top.depth) {
			continue
		}
		children := top.node.Children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: children[i], depth: top.depth + 1})
		}
	}
}

// Shape is a kind/label/child-count projection of a tree, used to compare
// trees structurally.
type Shape struct {
	Kind     NodeKind
	Label    string
	Children []Shape
}

// ShapeOf projects a forest into comparable shapes.
func ShapeOf(roots []*SyntaxNode) []Shape {
	out := make([]Shape, 0, len(roots))
	for _, n := range roots {
		if n == nil {
			continue
		}
		out = append(out, Shape{Kind: n.Kind, Label: n.Label, Children: ShapeOf(n.Children)})
	}
	return out
}
