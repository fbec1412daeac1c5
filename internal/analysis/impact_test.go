package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modbridge/internal/git"
	"modbridge/internal/graph"
	"modbridge/internal/ir"
)

func addClass(g *graph.Graph, path, name, extends string, imports ...string) {
	u := &ir.IR{Metadata: ir.Metadata{
		Classes: []ir.ClassInfo{{Name: name, Extends: extends}},
	}}
	for _, imp := range imports {
		u.Metadata.Imports = append(u.Metadata.Imports, ir.Import{Package: "com.example", ClassName: imp})
	}
	g.AddUnit(path, u)
}

// ModItems <- RubyBlock <- GlowingRubyBlock, Ping <-> Pong
func buildGraph() *graph.Graph {
	g := graph.NewGraph()
	addClass(g, "ModItems.java", "ModItems", "")
	addClass(g, "RubyBlock.java", "RubyBlock", "Block", "ModItems")
	addClass(g, "GlowingRubyBlock.java", "GlowingRubyBlock", "RubyBlock")
	addClass(g, "Ping.java", "Ping", "", "Pong")
	addClass(g, "Pong.java", "Pong", "", "Ping")
	g.LinkRelations()
	return g
}

func names(nodes []*graph.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Symbol.Name)
	}
	return out
}

func TestAnalyzeImpact(t *testing.T) {
	a := NewAnalyzer(buildGraph())

	report := a.AnalyzeImpact([]git.ChangedFile{{Path: "ModItems.java", ChangedLines: []int{3}}})
	assert.Equal(t, []string{"ModItems"}, names(report.DirectlyAffected))
	assert.Equal(t, []string{"GlowingRubyBlock", "RubyBlock"}, names(report.IndirectlyAffected))

	report = a.AnalyzeImpact([]git.ChangedFile{{Path: "README.md"}})
	assert.Empty(t, report.DirectlyAffected)
	assert.Empty(t, report.IndirectlyAffected)
}

func TestPortOrder(t *testing.T) {
	layers, cyclic := NewAnalyzer(buildGraph()).PortOrder()

	require.Len(t, layers, 3)
	assert.Equal(t, []string{"ModItems"}, names(layers[0]))
	assert.Equal(t, []string{"RubyBlock"}, names(layers[1]))
	assert.Equal(t, []string{"GlowingRubyBlock"}, names(layers[2]))
	assert.Equal(t, []string{"Ping", "Pong"}, names(cyclic))
}
