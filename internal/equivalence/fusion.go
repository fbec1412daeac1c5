package equivalence

import "sort"

// Fusion weights; they sum to 1.
const (
	weightStructural = 0.2
	weightSemantic   = 0.3
	weightBehavioral = 0.4
	weightAPI        = 0.1
)

const genericRecommendation = "Review the reported differences before shipping the translation"

// apiCompatibility is 1 - critical/total over api differences, or 1 when
// there are none.
func apiCompatibility(diffs []FunctionalDifference) float64 {
	total, critical := 0, 0
	for _, d := range diffs {
		if d.Category != CategoryAPI {
			continue
		}
		total++
		if d.Severity == SeverityCritical {
			critical++
		}
	}
	if total == 0 {
		return 1
	}
	return 1 - float64(critical)/float64(total)
}

// fuse combines analyzer results into a verdict. Any critical or high
// severity difference makes the pair non-equivalent regardless of confidence.
func fuse(structural, semantic, behavioral AnalyzerResult, threshold float64) Verdict {
	var diffs []FunctionalDifference
	var recs []string
	for _, r := range []AnalyzerResult{structural, semantic, behavioral} {
		diffs = append(diffs, r.Differences...)
		recs = append(recs, r.Recommendations...)
	}
	sortDifferences(diffs)

	scores := Scores{
		Structural:       clamp01(structural.Similarity),
		Semantic:         clamp01(semantic.Similarity),
		Behavioral:       clamp01(behavioral.Similarity),
		APICompatibility: apiCompatibility(diffs),
	}
	confidence := clamp01(weightStructural*scores.Structural +
		weightSemantic*scores.Semantic +
		weightBehavioral*scores.Behavioral +
		weightAPI*scores.APICompatibility)

	blocking := false
	for _, d := range diffs {
		if d.Severity == SeverityCritical || d.Severity == SeverityHigh {
			blocking = true
			break
		}
	}

	recs = dedupe(recs)
	if len(diffs) > 0 && len(recs) == 0 {
		recs = []string{genericRecommendation}
	}
	return Verdict{
		IsEquivalent:    !blocking && confidence >= threshold,
		Confidence:      confidence,
		Differences:     diffs,
		Recommendations: recs,
		Scores:          scores,
	}
}

// sortDifferences orders by severity (most severe first) then category.
// Ties keep analyzer order.
func sortDifferences(diffs []FunctionalDifference) {
	sort.SliceStable(diffs, func(i, j int) bool {
		ri, rj := diffs[i].Severity.Rank(), diffs[j].Severity.Rank()
		if ri != rj {
			return ri > rj
		}
		return diffs[i].Category.order() < diffs[j].Category.order()
	})
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, s := range items {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
