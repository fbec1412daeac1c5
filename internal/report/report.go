package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"modbridge/internal/equivalence"
)

type ReportSignal struct {
	Category   string `json:"category"`
	Severity   string `json:"severity"`
	Message    string `json:"message"`
	Location   string `json:"location,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

type StageMetric struct {
	Name        string  `json:"name"`
	Status      string  `json:"status"`
	DurationMS  int64   `json:"duration_ms"`
	Similarity  float64 `json:"similarity"`
	Differences int     `json:"differences"`
	Error       string  `json:"error,omitempty"`
}

type ReportSummary struct {
	StageCount        int            `json:"stage_count"`
	FailedStages      int            `json:"failed_stages"`
	SignalsBySeverity map[string]int `json:"signals_by_severity"`
}

// ValidationReport is the persisted record of one equivalence run.
type ValidationReport struct {
	Version         string                        `json:"version"`
	GeneratedAt     string                        `json:"generated_at"`
	Context         equivalence.ValidationContext `json:"context"`
	Outcome         string                        `json:"outcome"`
	IsEquivalent    bool                          `json:"is_equivalent"`
	Confidence      float64                       `json:"confidence"`
	Scores          equivalence.Scores            `json:"scores"`
	DurationMS      int64                         `json:"duration_ms"`
	Stages          []StageMetric                 `json:"stages"`
	Signals         []ReportSignal                `json:"signals,omitempty"`
	Recommendations []string                      `json:"recommendations,omitempty"`
	Summary         ReportSummary                 `json:"summary"`
}

func NewValidationReport(vc equivalence.ValidationContext, run equivalence.Run) *ValidationReport {
	r := &ValidationReport{
		Version:         "v1",
		GeneratedAt:     time.Now().UTC().Format(time.RFC3339),
		Context:         vc,
		Outcome:         run.Outcome,
		IsEquivalent:    run.Verdict.IsEquivalent,
		Confidence:      run.Verdict.Confidence,
		Scores:          run.Verdict.Scores,
		DurationMS:      run.Duration.Milliseconds(),
		Stages:          []StageMetric{},
		Recommendations: run.Verdict.Recommendations,
	}
	for _, a := range run.Analyzers {
		m := StageMetric{
			Name:        a.Name,
			Status:      "ok",
			DurationMS:  a.Duration.Milliseconds(),
			Similarity:  a.Similarity,
			Differences: a.Differences,
		}
		if a.Err != nil {
			m.Status = "error"
			m.Error = a.Err.Error()
		}
		r.Stages = append(r.Stages, m)
	}
	for _, d := range run.Verdict.Differences {
		r.AddSignal(d)
	}
	return r
}

func (r *ValidationReport) AddSignal(d equivalence.FunctionalDifference) {
	if r == nil {
		return
	}
	s := ReportSignal{
		Category:   strings.TrimSpace(string(d.Category)),
		Severity:   strings.ToLower(strings.TrimSpace(string(d.Severity))),
		Message:    strings.TrimSpace(d.Description),
		Location:   strings.TrimSpace(d.Location),
		Suggestion: strings.TrimSpace(d.Suggestion),
	}
	if s.Category == "" || s.Severity == "" || s.Message == "" {
		return
	}
	r.Signals = append(r.Signals, s)
}

func (r *ValidationReport) Finalize() {
	if r == nil {
		return
	}
	severityCount := map[string]int{
		string(equivalence.SeverityCritical): 0,
		string(equivalence.SeverityHigh):     0,
		string(equivalence.SeverityMedium):   0,
		string(equivalence.SeverityLow):      0,
	}
	sort.SliceStable(r.Signals, func(i, j int) bool {
		pi := equivalence.Severity(r.Signals[i].Severity).Rank()
		pj := equivalence.Severity(r.Signals[j].Severity).Rank()
		return pi > pj
	})
	for _, s := range r.Signals {
		severityCount[s.Severity]++
	}

	failed := 0
	for _, st := range r.Stages {
		if st.Status != "ok" {
			failed++
		}
	}

	r.Summary = ReportSummary{
		StageCount:        len(r.Stages),
		FailedStages:      failed,
		SignalsBySeverity: severityCount,
	}
}

func (r *ValidationReport) Save(path string) error {
	if r == nil {
		return nil
	}
	r.Finalize()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0644)
}
