package graph

import (
	"strings"

	"modbridge/internal/ir"
)

// FromUnit converts the classes of one analysed file into symbols. Every
// class of the file carries the file's imports as relations.
func FromUnit(path string, unit *ir.IR) []*Symbol {
	if unit == nil {
		return nil
	}

	var imports []Relation
	for _, imp := range unit.Metadata.Imports {
		if imp.ClassName == "*" || imp.Static {
			continue
		}
		imports = append(imports, Relation{Target: imp.ClassName, Kind: RelationImports})
	}

	out := make([]*Symbol, 0, len(unit.Metadata.Classes))
	for _, c := range unit.Metadata.Classes {
		s := &Symbol{
			ID:       path + ":" + c.Name,
			Filepath: path,
			Name:     c.Name,
			Category: c.Category,
			Line:     c.Line,
			Mappable: c.IsMappable,
		}
		if parent := simpleName(c.Extends); parent != "" {
			s.Relations = append(s.Relations, Relation{Target: parent, Kind: RelationExtends})
		}
		s.Relations = append(s.Relations, imports...)
		out = append(out, s)
	}
	return out
}

// simpleName turns "net.minecraft.block.Block<T>" into "Block".
func simpleName(typ string) string {
	if i := strings.IndexByte(typ, '<'); i >= 0 {
		typ = typ[:i]
	}
	typ = strings.TrimSpace(typ)
	if i := strings.LastIndexByte(typ, '.'); i >= 0 {
		typ = typ[i+1:]
	}
	return typ
}

// AddUnit adds every class of an analysed file.
func (g *Graph) AddUnit(path string, unit *ir.IR) {
	for _, s := range FromUnit(path, unit) {
		g.AddSymbol(s)
	}
}
