package equivalence

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

type pattern struct {
	name  string
	count func(code string) int
}

func matchCount(re *regexp.Regexp) func(string) int {
	return func(code string) int { return len(re.FindAllStringIndex(code, -1)) }
}

var semanticPatterns = []pattern{
	{"loop", matchCount(regexp.MustCompile(`\b(?:for|while|do)\b|\.forEach\s*\(`))},
	{"condition", matchCount(regexp.MustCompile(`\b(?:if|switch)\b|\?[^?:;\n]+:`))},
	{"assignment", matchCount(regexp.MustCompile(`[\w\])]\s*[+\-*/%]?=[^=>]`))},
	{"call", countCalls},
	{"return", matchCount(regexp.MustCompile(`\breturn\b`))},
}

var callTargetRe = regexp.MustCompile(`\b([A-Za-z_$][\w$]*)\s*\(`)

var nonCallWords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true, "return": true,
	"synchronized": true, "function": true, "typeof": true, "do": true, "else": true,
}

// knownEquivalents maps Java call names to their idiomatic script-side names.
var knownEquivalents = map[string]string{
	"println":       "log",
	"print":         "log",
	"printf":        "log",
	"add":           "push",
	"put":           "set",
	"contains":      "includes",
	"containsKey":   "has",
	"setBlockState": "setPermutation",
	"getBlockState": "getBlock",
}

// SemanticAnalyzer compares normalized pattern counts and call targets.
type SemanticAnalyzer struct{}

func NewSemanticAnalyzer() *SemanticAnalyzer { return &SemanticAnalyzer{} }

func (a *SemanticAnalyzer) Name() string { return AnalyzerSemantic }

func (a *SemanticAnalyzer) Analyze(ctx context.Context, in Input) (AnalyzerResult, error) {
	orig := stripNoise(in.Original)
	trans := stripNoise(in.Translated)
	if err := ctx.Err(); err != nil {
		return AnalyzerResult{}, err
	}

	var res AnalyzerResult
	total := 0.0
	for _, p := range semanticPatterns {
		o := p.count(orig)
		t := p.count(trans)
		total += closeness(o, t)

		largest := o
		if t > largest {
			largest = t
		}
		if d := o - t; float64(abs(d)) > 0.3*float64(largest) {
			res.Differences = append(res.Differences, FunctionalDifference{
				Category:    CategoryLogic,
				Severity:    SeverityMedium,
				Description: fmt.Sprintf("%s count differs: original %d, translated %d", p.name, o, t),
				Location:    p.name,
				Suggestion:  fmt.Sprintf("Check that every %s in the original has a counterpart", p.name),
			})
		}
	}
	patternScore := total / float64(len(semanticPatterns))

	callScore, unexplained := matchCalls(callTargets(orig), callTargets(trans))

	if callScore < 0.5 {
		if len(unexplained) > 0 {
			if len(unexplained) > 5 {
				unexplained = unexplained[:5]
			}
			res.Differences = append(res.Differences, FunctionalDifference{
				Category:    CategoryAPI,
				Severity:    SeverityMedium,
				Description: fmt.Sprintf("low call-target overlap (%.2f); unmatched: %s", callScore, strings.Join(unexplained, ", ")),
				Suggestion:  "Map the unmatched calls through the API mapping table",
			})
			res.Recommendations = append(res.Recommendations,
				"Verify that every original API call has a mapped equivalent")
		}
	}
	if len(res.Differences) > 0 {
		res.Recommendations = append(res.Recommendations,
			"Compare control flow and call sites of both sources line by line")
	}

	res.Similarity = clamp01(0.6*patternScore + 0.4*callScore)
	return res, nil
}

// matchCalls scores call-target overlap. An original target counts as
// matched when the translation calls it by its own name or by its known
// equivalent. Unmatched original names are returned sorted.
func matchCalls(orig, trans map[string]struct{}) (float64, []string) {
	largest := len(orig)
	if len(trans) > largest {
		largest = len(trans)
	}
	if largest == 0 {
		return 1, nil
	}
	shared := 0
	var unmatched []string
	for name := range orig {
		if _, ok := trans[name]; ok {
			shared++
			continue
		}
		if eq, ok := knownEquivalents[name]; ok {
			if _, ok := trans[eq]; ok {
				shared++
				continue
			}
		}
		unmatched = append(unmatched, name)
	}
	sort.Strings(unmatched)
	return float64(shared) / float64(largest), unmatched
}

// callTargets returns the distinct names invoked in code.
func callTargets(code string) map[string]struct{} {
	out := map[string]struct{}{}
	forEachCall(code, func(name string) { out[name] = struct{}{} })
	return out
}

func countCalls(code string) int {
	n := 0
	forEachCall(code, func(string) { n++ })
	return n
}

// forEachCall visits every call site. Declarations, where the closing
// parenthesis is followed by a body, are skipped.
func forEachCall(code string, fn func(name string)) {
	for _, loc := range callTargetRe.FindAllStringSubmatchIndex(code, -1) {
		name := code[loc[2]:loc[3]]
		if nonCallWords[name] {
			continue
		}
		if strings.HasSuffix(strings.TrimSpace(code[:loc[2]]), "function") {
			continue
		}
		if isDeclaration(code, loc[1]-1) {
			continue
		}
		fn(name)
	}
}

// isDeclaration reports whether the parenthesis at open is followed by a body.
func isDeclaration(code string, open int) bool {
	depth := 0
	i := open
	for ; i < len(code); i++ {
		switch code[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth == 0 {
			break
		}
	}
	if i >= len(code) {
		return false
	}
	rest := strings.TrimLeft(code[i+1:], " \t\r\n")
	if strings.HasPrefix(rest, "throws") {
		if idx := strings.IndexAny(rest, "{;"); idx >= 0 {
			rest = rest[idx:]
		}
	}
	return strings.HasPrefix(rest, "{")
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
