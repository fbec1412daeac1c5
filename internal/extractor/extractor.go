package extractor

import (
	"fmt"
	"os"
	"strings"

	"modbridge/internal/ir"
)

// AnalysisError reports a top-level analysis failure. Message carries the
// original error text.
type AnalysisError struct {
	Path    string
	Message string
}

func (e *AnalysisError) Error() string {
	if e.Path == "" {
		return "analysis failed: " + e.Message
	}
	return fmt.Sprintf("analysis failed for %s: %s", e.Path, e.Message)
}

// Extractor turns source text into an IR. It holds no parse state, so one
// instance can serve concurrent callers.
type Extractor struct {
	langName string
}

// NewExtractor creates a new extractor for a given language.
func NewExtractor(lang string) (*Extractor, error) {
	switch lang {
	case "java":
		return &Extractor{langName: lang}, nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}

// Analyze lexes, parses and summarises one source unit. Malformed input
// degrades to generic nodes; an error is returned only for unexpected
// failures, as an *AnalysisError.
func (e *Extractor) Analyze(source string) (*ir.IR, error) {
	return e.analyze("", source)
}

// ExtractFromFile reads and analyses a single source file.
func (e *Extractor) ExtractFromFile(filepath string) (*ir.IR, error) {
	sourceCode, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filepath, err)
	}
	return e.analyze(filepath, string(sourceCode))
}

func (e *Extractor) analyze(path, source string) (result *ir.IR, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &AnalysisError{Path: path, Message: fmt.Sprint(r)}
		}
	}()

	tree := BuildTree(Tokenize(source))
	imports := ExtractImports(source)
	classes, methods, fields := harvest(tree)

	return &ir.IR{
		SyntaxTree: tree,
		Metadata: ir.Metadata{
			SourceLineCount: countLines(source),
			Complexity:      ComputeComplexity(tree),
			Imports:         imports,
			Classes:         classes,
			Methods:         methods,
			Fields:          fields,
		},
		Dependencies: BuildDependencies(imports),
	}, nil
}

func countLines(source string) int {
	if source == "" {
		return 0
	}
	n := strings.Count(source, "\n")
	if !strings.HasSuffix(source, "\n") {
		n++
	}
	return n
}
