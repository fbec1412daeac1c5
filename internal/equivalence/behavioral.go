package equivalence

import (
	"context"
	"fmt"
	"regexp"
)

// probe detects one observable behavior in a source.
type probe struct {
	name string
	re   *regexp.Regexp
}

// scenario is a named group of probes exercised against both sources.
type scenario struct {
	name   string
	probes []probe
}

var baselineScenario = scenario{
	name: "baseline",
	probes: []probe{
		{"output", regexp.MustCompile(`\b(?:println|printf|print|log|warn|error|info|sendMessage|tell)\s*\(`)},
		{"state mutation", regexp.MustCompile(`\b(?:this\.)?[A-Za-z_$][\w$]*\s*(?:[+\-*/]?=[^=>]|\+\+|--)`)},
		{"early return", regexp.MustCompile(`\bif\s*\([^{;]*\)\s*\{?\s*return\b`)},
		{"loops", regexp.MustCompile(`\b(?:for|while|do)\b|\.forEach\s*\(`)},
	},
}

var worldScenario = scenario{
	name: "world_interaction",
	probes: []probe{
		{"world read", regexp.MustCompile(`\b(?:getBlockState|getBlock|getBlockEntity|isClient|isRemote|getTime|getDimension)\b`)},
		{"world write", regexp.MustCompile(`\b(?:setBlockState|setBlock|setPermutation|removeBlock|spawnEntity|playSound|setType)\b`)},
		{"entity access", regexp.MustCompile(`\b(?:getEntities|getEntity|getPlayers|entity|player)\b`)},
	},
}

var (
	worldStateRe = regexp.MustCompile(`\b(?:world|World|level|Level|dimension|Dimension)\b`)
	asyncRe      = regexp.MustCompile(`\b(?:async|await|Promise|CompletableFuture|Thread|Executor\w*|runTimeout|runInterval|system\.run)\b|\.then\s*\(`)
	exceptionRe  = regexp.MustCompile(`\b(?:try|catch)\b`)
)

// BehavioralAnalyzer simulates representative scenarios by checking that
// the behaviors each one observes are present in both sources or in neither.
type BehavioralAnalyzer struct{}

func NewBehavioralAnalyzer() *BehavioralAnalyzer { return &BehavioralAnalyzer{} }

func (a *BehavioralAnalyzer) Name() string { return AnalyzerBehavioral }

func (a *BehavioralAnalyzer) Analyze(ctx context.Context, in Input) (AnalyzerResult, error) {
	orig := stripNoise(in.Original)
	trans := stripNoise(in.Translated)

	var res AnalyzerResult
	scenarios := deriveScenarios(orig, trans)
	total := 0.0
	for _, sc := range scenarios {
		if err := ctx.Err(); err != nil {
			return AnalyzerResult{}, err
		}
		agree := 0
		for _, p := range sc.probes {
			inOrig := p.re.MatchString(orig)
			inTrans := p.re.MatchString(trans)
			if inOrig == inTrans {
				agree++
				continue
			}
			res.Differences = append(res.Differences, FunctionalDifference{
				Category:    CategoryBehavior,
				Severity:    SeverityLow,
				Description: fmt.Sprintf("scenario %s: %s %s", sc.name, p.name, presence(inOrig, inTrans)),
				Location:    sc.name,
				Suggestion:  fmt.Sprintf("Confirm the %s behavior is intentionally changed", p.name),
			})
		}
		total += float64(agree) / float64(len(sc.probes))
	}
	res.Similarity = clamp01(total / float64(len(scenarios)))

	if asyncRe.MatchString(orig) != asyncRe.MatchString(trans) {
		res.Differences = append(res.Differences, FunctionalDifference{
			Category:    CategoryBehavior,
			Severity:    SeverityMedium,
			Description: "asynchronous execution " + presence(asyncRe.MatchString(orig), asyncRe.MatchString(trans)),
			Suggestion:  "Check ordering and timing assumptions around deferred work",
		})
		res.Recommendations = append(res.Recommendations,
			"Test the translated code under the same tick timing as the original")
	}
	if exceptionRe.MatchString(orig) && !exceptionRe.MatchString(trans) {
		res.Differences = append(res.Differences, FunctionalDifference{
			Category:    CategoryBehavior,
			Severity:    SeverityMedium,
			Description: "exception handling present in the original is missing from the translation",
			Suggestion:  "Wrap the failing operations in try/catch",
		})
		res.Recommendations = append(res.Recommendations,
			"Add error handling equivalent to the original try/catch blocks")
	}
	return res, nil
}

// deriveScenarios always includes the baseline and adds world interaction
// when either source references world state.
func deriveScenarios(orig, trans string) []scenario {
	out := []scenario{baselineScenario}
	if worldStateRe.MatchString(orig) || worldStateRe.MatchString(trans) {
		out = append(out, worldScenario)
	}
	return out
}

func presence(inOrig, inTrans bool) string {
	if inOrig && !inTrans {
		return "was dropped in the translation"
	}
	return "was introduced by the translation"
}
