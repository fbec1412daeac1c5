package equivalence

import "context"

// Category groups functional differences.
type Category string

const (
	CategoryBehavior    Category = "behavior"
	CategoryAPI         Category = "api"
	CategoryLogic       Category = "logic"
	CategoryPerformance Category = "performance"
)

// order is the sort position of a category; lower sorts first.
func (c Category) order() int {
	switch c {
	case CategoryBehavior:
		return 0
	case CategoryAPI:
		return 1
	case CategoryLogic:
		return 2
	case CategoryPerformance:
		return 3
	default:
		return 4
	}
}

// Severity ranks a difference: critical > high > medium > low.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank returns a comparable weight; higher is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// FunctionalDifference is one way the translation diverges from the original.
type FunctionalDifference struct {
	Category    Category `json:"category"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Location    string   `json:"location"`
	Suggestion  string   `json:"suggestion"`
}

// Scores are the per-lens similarities that fed the confidence.
type Scores struct {
	Structural       float64 `json:"structural"`
	Semantic         float64 `json:"semantic"`
	Behavioral       float64 `json:"behavioral"`
	APICompatibility float64 `json:"api_compatibility"`
}

// Verdict is the outcome of one validation. It is built fresh per call.
type Verdict struct {
	IsEquivalent    bool                   `json:"is_equivalent"`
	Confidence      float64                `json:"confidence"`
	Differences     []FunctionalDifference `json:"differences"`
	Recommendations []string               `json:"recommendations"`
	Scores          Scores                 `json:"scores"`
}

// ValidationContext describes where a source pair comes from.
type ValidationContext struct {
	ModName    string   `json:"mod_name,omitempty"`
	SourcePath string   `json:"source_path,omitempty"`
	TargetPath string   `json:"target_path,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

// Input is the (original, translated) pair under validation.
type Input struct {
	Original   string
	Translated string
	Context    ValidationContext
}

// AnalyzerResult is what one lens reports. The analyzer owns it until
// Analyze returns.
type AnalyzerResult struct {
	Similarity      float64
	Differences     []FunctionalDifference
	Recommendations []string
}

// Analyzer is one independent lens over an Input. Implementations must not
// share mutable state between calls.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, in Input) (AnalyzerResult, error)
}

// Names of the built-in analyzers.
const (
	AnalyzerStructural = "structural"
	AnalyzerSemantic   = "semantic"
	AnalyzerBehavioral = "behavioral"
)
