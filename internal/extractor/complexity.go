package extractor

import "modbridge/internal/ir"

// ComputeComplexity derives metrics from a node forest. It walks with an
// explicit stack so deeply nested input cannot exhaust the goroutine stack.
//
// Cyclomatic complexity is 1 plus one per decision node. Cognitive complexity
// sums weight * max(nesting, 1) over every node, where nesting counts the
// nesting-capable ancestors of the node.
func ComputeComplexity(nodes []*ir.SyntaxNode) ir.ComplexityMetrics {
	m := ir.ComplexityMetrics{CyclomaticComplexity: 1}

	type frame struct {
		node    *ir.SyntaxNode
		nesting int
	}
	stack := make([]frame, 0, len(nodes))
	for i := len(nodes) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: nodes[i]})
	}

	lines := make(map[int]struct{})
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := f.node
		if n == nil {
			continue
		}

		if decisionKinds[n.Kind] {
			m.CyclomaticComplexity++
		}
		m.CognitiveComplexity += complexityWeights[n.Kind] * max(f.nesting, 1)
		if n.Kind != ir.KindComment && n.Pos.Line > 0 {
			lines[n.Pos.Line] = struct{}{}
		}

		childNesting := f.nesting
		if nestingKinds[n.Kind] {
			childNesting++
			if childNesting > m.MaxNestingDepth {
				m.MaxNestingDepth = childNesting
			}
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: n.Children[i], nesting: childNesting})
		}
	}
	m.LinesOfCode = len(lines)
	return m
}
