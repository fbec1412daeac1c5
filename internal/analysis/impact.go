package analysis

import (
	"sort"

	"modbridge/internal/git"
	"modbridge/internal/graph"
)

// ImpactReport summarizes the classes affected by changes.
type ImpactReport struct {
	DirectlyAffected   []*graph.Node
	IndirectlyAffected []*graph.Node
}

// Analyzer performs impact and ordering analysis on the class graph.
type Analyzer struct {
	g *graph.Graph
}

// NewAnalyzer creates a new analyzer. The graph must already be linked.
func NewAnalyzer(g *graph.Graph) *Analyzer {
	return &Analyzer{g: g}
}

// AnalyzeImpact returns the classes declared in changed files, plus every
// class that transitively depends on one of them. Those need re-porting.
func (a *Analyzer) AnalyzeImpact(changes []git.ChangedFile) *ImpactReport {
	report := &ImpactReport{
		DirectlyAffected:   []*graph.Node{},
		IndirectlyAffected: []*graph.Node{},
	}

	changed := make(map[string]bool, len(changes))
	for _, c := range changes {
		changed[c.Path] = true
	}

	seen := make(map[string]bool)
	var queue []string
	for _, id := range a.g.IDs() {
		if changed[a.g.Nodes[id].Symbol.Filepath] {
			report.DirectlyAffected = append(report.DirectlyAffected, a.g.Nodes[id])
			seen[id] = true
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, dep := range a.g.GetDependents(id) {
			if seen[dep.Symbol.ID] {
				continue
			}
			seen[dep.Symbol.ID] = true
			report.IndirectlyAffected = append(report.IndirectlyAffected, dep)
			queue = append(queue, dep.Symbol.ID)
		}
	}
	sortNodes(report.IndirectlyAffected)
	return report
}

// PortOrder groups classes into layers where every class only depends on
// classes of earlier layers. Classes caught in a dependency cycle are
// returned separately, since they have to be ported together.
func (a *Analyzer) PortOrder() (layers [][]*graph.Node, cyclic []*graph.Node) {
	pending := make(map[string]int, len(a.g.Nodes))
	for _, id := range a.g.IDs() {
		pending[id] = len(a.g.GetDependencies(id))
	}

	for len(pending) > 0 {
		var layer []*graph.Node
		for id, n := range pending {
			if n == 0 {
				layer = append(layer, a.g.Nodes[id])
			}
		}
		if len(layer) == 0 {
			break
		}
		sortNodes(layer)
		for _, node := range layer {
			delete(pending, node.Symbol.ID)
		}
		for _, node := range layer {
			for _, dep := range a.g.GetDependents(node.Symbol.ID) {
				if _, ok := pending[dep.Symbol.ID]; ok {
					pending[dep.Symbol.ID]--
				}
			}
		}
		layers = append(layers, layer)
	}

	for id := range pending {
		cyclic = append(cyclic, a.g.Nodes[id])
	}
	sortNodes(cyclic)
	return layers, cyclic
}

func sortNodes(nodes []*graph.Node) {
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Symbol.ID < nodes[j].Symbol.ID
	})
}
