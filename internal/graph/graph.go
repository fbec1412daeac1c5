package graph

import "sort"

// Node represents a vertex in the class graph.
type Node struct {
	Symbol *Symbol
}

// Edge represents a directed relationship between two nodes.
type Edge struct {
	From string // Source symbol ID
	To   string // Target symbol ID
	Kind RelationKind
}

// Graph manages class nodes and their relationships.
type Graph struct {
	Nodes      map[string]*Node
	Edges      []Edge
	Unresolved []Unresolved

	// Name -> []ID, used to resolve name-based relations.
	nameIndex map[string][]string
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes:     make(map[string]*Node),
		Edges:     []Edge{},
		nameIndex: make(map[string][]string),
	}
}

// AddSymbol adds a symbol as a node and indexes it by name.
func (g *Graph) AddSymbol(s *Symbol) {
	if s == nil {
		return
	}
	if _, exists := g.Nodes[s.ID]; !exists {
		g.nameIndex[s.Name] = append(g.nameIndex[s.Name], s.ID)
	}
	g.Nodes[s.ID] = &Node{Symbol: s}
}

// IDs returns every node ID in sorted order.
func (g *Graph) IDs() []string {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LinkRelations resolves all name-based relations to node IDs. Self edges
// are dropped; a name shared by several classes links to all of them.
func (g *Graph) LinkRelations() {
	g.Edges = []Edge{}
	g.Unresolved = nil

	for _, sourceID := range g.IDs() {
		node := g.Nodes[sourceID]
		seen := make(map[Edge]bool)
		for _, rel := range node.Symbol.Relations {
			targets := g.nameIndex[rel.Target]
			if len(targets) == 0 {
				g.Unresolved = append(g.Unresolved, Unresolved{From: sourceID, Target: rel.Target, Kind: rel.Kind})
				continue
			}
			for _, targetID := range targets {
				e := Edge{From: sourceID, To: targetID, Kind: rel.Kind}
				if targetID == sourceID || seen[e] {
					continue
				}
				seen[e] = true
				g.Edges = append(g.Edges, e)
			}
		}
	}
}

// GetDependencies returns all nodes that the given node depends on.
func (g *Graph) GetDependencies(id string) []*Node {
	var deps []*Node
	seen := make(map[string]bool)
	for _, edge := range g.Edges {
		if edge.From == id && !seen[edge.To] {
			if node, ok := g.Nodes[edge.To]; ok {
				deps = append(deps, node)
				seen[edge.To] = true
			}
		}
	}
	return deps
}

// GetDependents returns all nodes that depend on the given node.
func (g *Graph) GetDependents(id string) []*Node {
	var deps []*Node
	seen := make(map[string]bool)
	for _, edge := range g.Edges {
		if edge.To == id && !seen[edge.From] {
			if node, ok := g.Nodes[edge.From]; ok {
				deps = append(deps, node)
				seen[edge.From] = true
			}
		}
	}
	return deps
}
