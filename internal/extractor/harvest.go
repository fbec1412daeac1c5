package extractor

import "modbridge/internal/ir"

// harvest collects class, method and field summaries from every scope of the
// tree, in pre-order.
func harvest(nodes []*ir.SyntaxNode) (classes []ir.ClassInfo, methods []ir.MethodInfo, fields []ir.FieldInfo) {
	ir.Walk(nodes, func(n *ir.SyntaxNode, _ int) bool {
		switch n.Kind {
		case ir.KindClassDeclaration:
			info := ir.ClassInfo{
				Name:       n.Label,
				Category:   n.Meta.JavaCategory,
				Line:       n.Pos.Line,
				IsMappable: n.Meta.IsMappable,
			}
			if d, ok := n.Meta.Details.(ir.ClassDetails); ok {
				info.Extends = d.Extends
				info.Modifiers = d.Modifiers
			}
			classes = append(classes, info)
		case ir.KindMethodDeclaration:
			info := ir.MethodInfo{
				Name:       n.Label,
				Line:       n.Pos.Line,
				IsMappable: n.Meta.IsMappable,
			}
			if d, ok := n.Meta.Details.(ir.MethodDetails); ok {
				info.ReturnType = d.ReturnType
				info.ParameterNames = d.ParameterNames
				info.Modifiers = d.Modifiers
			}
			methods = append(methods, info)
		case ir.KindFieldDeclaration:
			info := ir.FieldInfo{Name: n.Label, Line: n.Pos.Line}
			if d, ok := n.Meta.Details.(ir.FieldDetails); ok {
				info.Type = d.Type
				info.Modifiers = d.Modifiers
			}
			fields = append(fields, info)
		}
		return true
	})
	return classes, methods, fields
}

// UnmappedCalls returns the distinct call names in the tree that are not on
// the mappable allow-list, in first-seen order.
func UnmappedCalls(nodes []*ir.SyntaxNode) []string {
	var out []string
	seen := make(map[string]bool)
	ir.Walk(nodes, func(n *ir.SyntaxNode, _ int) bool {
		if n.Kind == ir.KindMethodCall && !n.Meta.IsMappable && !seen[n.Label] {
			seen[n.Label] = true
			out = append(out, n.Label)
		}
		return true
	})
	return out
}
