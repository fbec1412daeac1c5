package equivalence

import (
	"context"
	"fmt"
	"regexp"
)

// Language names the source dialect handed to an InventoryExtractor.
type Language string

const (
	LangJava       Language = "java"
	LangJavaScript Language = "javascript"
)

// Inventory is the structural summary of one source.
type Inventory struct {
	Methods    map[string]struct{}
	Classes    map[string]struct{}
	Complexity int
}

func newInventory() Inventory {
	return Inventory{Methods: map[string]struct{}{}, Classes: map[string]struct{}{}}
}

// InventoryExtractor produces the method/class inventory of a source.
type InventoryExtractor interface {
	Extract(ctx context.Context, src string, lang Language) (Inventory, error)
}

var (
	methodDeclRe = regexp.MustCompile(`\b([A-Za-z_$][\w$]*)\s*\([^()]*\)\s*(?:throws\s+[\w.,\s]+?)?\s*\{`)
	jsFuncAssign = regexp.MustCompile(`\b([A-Za-z_$][\w$]*)\s*[:=]\s*(?:async\s+)?(?:function\b|\([^()]*\)\s*=>|[A-Za-z_$][\w$]*\s*=>)`)
	classDeclRe  = regexp.MustCompile(`\b(?:class|interface|enum)\s+([A-Za-z_$][\w$]*)`)
	decisionRe   = regexp.MustCompile(`\b(?:if|for|while|case|catch)\b|&&|\|\|`)
	// instantiation prefix of an anonymous class body, e.g. "new Runnable() {"
	newPrefixRe  = regexp.MustCompile(`\bnew\s+(?:[\w$]+\s*\.\s*)*$`)
)

var notMethodNames = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"synchronized": true, "function": true, "return": true, "constructor": true,
}

// PatternExtractor builds inventories with regular expressions. It never
// fails and needs no parser.
type PatternExtractor struct{}

func (PatternExtractor) Extract(_ context.Context, src string, _ Language) (Inventory, error) {
	code := stripNoise(src)
	inv := newInventory()

	for _, m := range classDeclRe.FindAllStringSubmatch(code, -1) {
		inv.Classes[m[1]] = struct{}{}
	}
	addMethod := func(name string) {
		if notMethodNames[name] {
			return
		}
		if _, isClass := inv.Classes[name]; isClass {
			return
		}
		inv.Methods[name] = struct{}{}
	}
	for _, m := range methodDeclRe.FindAllStringSubmatchIndex(code, -1) {
		if instantiated(code, m[2]) {
			continue
		}
		addMethod(code[m[2]:m[3]])
	}
	for _, m := range jsFuncAssign.FindAllStringSubmatch(code, -1) {
		addMethod(m[1])
	}
	inv.Complexity = len(decisionRe.FindAllStringIndex(code, -1))
	return inv, nil
}

// instantiated reports whether the identifier at pos follows "new".
func instantiated(code string, pos int) bool {
	from := pos - 256
	if from < 0 {
		from = 0
	}
	return newPrefixRe.MatchString(code[from:pos])
}

// StructuralAnalyzer compares method and class inventories and decision counts.
type StructuralAnalyzer struct {
	extractor InventoryExtractor
}

// NewStructuralAnalyzer uses the given extractor, or pattern matching when nil.
func NewStructuralAnalyzer(extractor InventoryExtractor) *StructuralAnalyzer {
	if extractor == nil {
		extractor = PatternExtractor{}
	}
	return &StructuralAnalyzer{extractor: extractor}
}

func (a *StructuralAnalyzer) Name() string { return AnalyzerStructural }

func (a *StructuralAnalyzer) Analyze(ctx context.Context, in Input) (AnalyzerResult, error) {
	orig, err := a.extractor.Extract(ctx, in.Original, LangJava)
	if err != nil {
		return AnalyzerResult{}, fmt.Errorf("extract original inventory: %w", err)
	}
	trans, err := a.extractor.Extract(ctx, in.Translated, LangJavaScript)
	if err != nil {
		return AnalyzerResult{}, fmt.Errorf("extract translated inventory: %w", err)
	}

	var res AnalyzerResult
	res.Similarity = clamp01((overlap(orig.Methods, trans.Methods) +
		overlap(orig.Classes, trans.Classes) +
		closeness(orig.Complexity, trans.Complexity)) / 3)

	for _, name := range missing(orig.Methods, trans.Methods) {
		res.Differences = append(res.Differences, FunctionalDifference{
			Category:    CategoryLogic,
			Severity:    SeverityHigh,
			Description: fmt.Sprintf("method %q is missing from the translation", name),
			Location:    name,
			Suggestion:  fmt.Sprintf("Implement %s in the translated source", name),
		})
	}
	for _, name := range missing(orig.Classes, trans.Classes) {
		res.Differences = append(res.Differences, FunctionalDifference{
			Category:    CategoryLogic,
			Severity:    SeverityMedium,
			Description: fmt.Sprintf("class %q is missing from the translation", name),
			Location:    name,
			Suggestion:  fmt.Sprintf("Check whether %s was merged into another type", name),
		})
	}
	if diff := orig.Complexity - trans.Complexity; diff > 3 || diff < -3 {
		res.Differences = append(res.Differences, FunctionalDifference{
			Category: CategoryLogic,
			Severity: SeverityMedium,
			Description: fmt.Sprintf("control-flow complexity differs: original %d, translated %d",
				orig.Complexity, trans.Complexity),
			Suggestion: "Compare branching and loop structure between the two sources",
		})
	}
	if len(res.Differences) > 0 {
		res.Recommendations = append(res.Recommendations,
			"Review the structural differences and port the missing members")
	}
	return res, nil
}
