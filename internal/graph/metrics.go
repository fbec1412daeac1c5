package graph

// UnresolvedTargetCounts counts, per target name, the classes that reference
// it without it being declared in the project.
func (g *Graph) UnresolvedTargetCounts() map[string]int {
	counts := make(map[string]int)
	if g == nil {
		return counts
	}
	seen := make(map[string]bool)
	for _, u := range g.Unresolved {
		key := u.From + "\x00" + u.Target
		if seen[key] {
			continue
		}
		seen[key] = true
		counts[u.Target]++
	}
	return counts
}
