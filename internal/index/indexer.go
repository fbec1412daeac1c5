package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"modbridge/internal/crawler"
	"modbridge/internal/extractor"
	"modbridge/internal/graph"
	"modbridge/internal/ir"
)

// FileSummary is the per-file slice of a project summary.
type FileSummary struct {
	Path            string               `json:"path"`
	SourceLineCount int                  `json:"source_line_count"`
	Complexity      ir.ComplexityMetrics `json:"complexity"`
	Classes         []ir.ClassInfo       `json:"classes"`
	MethodCount     int                  `json:"method_count"`
	FieldCount      int                  `json:"field_count"`
	UnmappedCalls   []string             `json:"unmapped_calls,omitempty"`
}

// Totals aggregates every file of a project.
type Totals struct {
	Files                int `json:"files"`
	Classes              int `json:"classes"`
	Methods              int `json:"methods"`
	LinesOfCode          int `json:"lines_of_code"`
	CyclomaticComplexity int `json:"cyclomatic_complexity"`
	MappableClasses      int `json:"mappable_classes"`
}

// ProjectSummary is what the indexer persists for a mod source tree.
type ProjectSummary struct {
	Root         string          `json:"root"`
	Files        []FileSummary   `json:"files"`
	Dependencies []ir.Dependency `json:"dependencies"`
	// UnmappedCalls counts, per call name, the files it appears in.
	UnmappedCalls map[string]int `json:"unmapped_calls"`
	Totals        Totals         `json:"totals"`
}

// Indexer orchestrates project scanning and summary persistence.
type Indexer struct {
	crawler *crawler.Crawler
}

// NewIndexer creates a new indexer.
func NewIndexer(c *crawler.Crawler) *Indexer {
	return &Indexer{
		crawler: c,
	}
}

// BuildSummary scans the project root and aggregates every file's IR.
func (i *Indexer) BuildSummary(root string) (*ProjectSummary, error) {
	s, _, err := i.Build(root)
	return s, err
}

// Build scans the project root once and returns both the summary and the
// linked class graph. Graph paths match FileSummary paths.
func (i *Indexer) Build(root string) (*ProjectSummary, *graph.Graph, error) {
	s := &ProjectSummary{Root: root, Files: []FileSummary{}, UnmappedCalls: map[string]int{}}
	g := graph.NewGraph()
	deps := map[string]ir.Dependency{}

	err := i.crawler.ScanProject(root, func(path string, unit *ir.IR) {
		rel := relativePath(root, path)
		s.AddUnit(rel, unit)
		g.AddUnit(rel, unit)
		for _, d := range unit.Dependencies {
			deps[d.PackageName+"."+d.ClassName] = d
		}
	})
	if err != nil {
		return nil, nil, fmt.Errorf("scan failed: %w", err)
	}
	g.LinkRelations()

	s.Dependencies = make([]ir.Dependency, 0, len(deps))
	for _, d := range deps {
		s.Dependencies = append(s.Dependencies, d)
	}
	sort.Slice(s.Dependencies, func(a, b int) bool {
		da, db := s.Dependencies[a], s.Dependencies[b]
		if da.PackageName != db.PackageName {
			return da.PackageName < db.PackageName
		}
		return da.ClassName < db.ClassName
	})
	return s, g, nil
}

// AddUnit folds one analysed file into the summary.
func (s *ProjectSummary) AddUnit(path string, unit *ir.IR) {
	fs := FileSummary{
		Path:            path,
		SourceLineCount: unit.Metadata.SourceLineCount,
		Complexity:      unit.Metadata.Complexity,
		Classes:         unit.Metadata.Classes,
		MethodCount:     len(unit.Metadata.Methods),
		FieldCount:      len(unit.Metadata.Fields),
		UnmappedCalls:   extractor.UnmappedCalls(unit.SyntaxTree),
	}
	s.Files = append(s.Files, fs)
	for _, call := range fs.UnmappedCalls {
		s.UnmappedCalls[call]++
	}

	s.Totals.Files++
	s.Totals.Classes += len(fs.Classes)
	s.Totals.Methods += fs.MethodCount
	s.Totals.LinesOfCode += fs.Complexity.LinesOfCode
	s.Totals.CyclomaticComplexity += fs.Complexity.CyclomaticComplexity
	for _, c := range fs.Classes {
		if c.IsMappable {
			s.Totals.MappableClasses++
		}
	}
}

// SaveSummary persists the summary to a JSON file.
func (i *Indexer) SaveSummary(s *ProjectSummary, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s); err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return nil
}

// LoadSummary loads a summary from a JSON file.
func (i *Indexer) LoadSummary(path string) (*ProjectSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open summary file: %w", err)
	}
	defer f.Close()

	var s ProjectSummary
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode summary: %w", err)
	}
	if s.UnmappedCalls == nil {
		s.UnmappedCalls = map[string]int{}
	}
	return &s, nil
}

func relativePath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
