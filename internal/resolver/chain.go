package resolver

import (
	"fmt"

	"modbridge/internal/mapping"
)

// Stage names reported in resolutions and metrics.
const (
	StageCache     = "cache"
	StageExact     = "exact"
	StageFuzzy     = "fuzzy"
	StageLegacy    = "legacy"
	StageSynthesis = "synthesis"
)

// Stage is one step of the fallback chain. Resolve reports whether it
// produced a mapping for sig, and with what similarity (1 for exact answers).
type Stage interface {
	Name() string
	Resolve(sig string) (m mapping.APIMapping, similarity float64, ok bool)
}

// StageResult records one stage attempt.
type StageResult struct {
	Stage      string
	Matched    bool
	Similarity float64
}

// Resolution is the outcome of a chain run. Mapping is always set.
type Resolution struct {
	Mapping    mapping.APIMapping
	Stage      string
	Similarity float64
	Attempts   []StageResult
}

// Authoritative reports whether the mapping came from the store unchanged.
func (r Resolution) Authoritative() bool {
	return r.Stage == StageExact || r.Stage == StageCache
}

type ResolverChain struct {
	stages []Stage
}

func NewResolverChain(stages ...Stage) *ResolverChain {
	return &ResolverChain{stages: stages}
}

// NewDefaultChain builds exact -> fuzzy -> legacy -> synthesis.
func NewDefaultChain(index SignatureIndex, fuzzyThreshold float64, legacy *LegacyTable) *ResolverChain {
	return NewResolverChain(
		NewExactStage(index),
		NewFuzzyStage(index, fuzzyThreshold),
		NewLegacyStage(legacy),
		NewSynthesisStage(),
	)
}

// Run tries each stage in order and stops at the first match. If no stage
// matches, the result is synthesised, so Run never returns an empty mapping.
func (c *ResolverChain) Run(sig string) Resolution {
	var out Resolution
	for _, s := range c.stages {
		m, sim, ok := s.Resolve(sig)
		out.Attempts = append(out.Attempts, StageResult{Stage: s.Name(), Matched: ok, Similarity: sim})
		if ok {
			out.Mapping = m
			out.Stage = s.Name()
			out.Similarity = sim
			return out
		}
	}
	out.Mapping = Synthesize(sig)
	out.Stage = StageSynthesis
	return out
}

// SignatureIndex is the read side of the mapping store.
type SignatureIndex interface {
	FindBySignature(sig string) (mapping.APIMapping, bool)
	Signatures() []string
}

type ExactStage struct {
	index SignatureIndex
}

func NewExactStage(index SignatureIndex) *ExactStage {
	return &ExactStage{index: index}
}

func (s *ExactStage) Name() string { return StageExact }

func (s *ExactStage) Resolve(sig string) (mapping.APIMapping, float64, bool) {
	m, ok := s.index.FindBySignature(sig)
	if !ok {
		return mapping.APIMapping{}, 0, false
	}
	return m, 1, true
}

// FuzzyStage compares sig against every stored signature and accepts the best
// one at or above the threshold. Ties go to the smallest signature.
type FuzzyStage struct {
	index     SignatureIndex
	threshold float64
}

func NewFuzzyStage(index SignatureIndex, threshold float64) *FuzzyStage {
	return &FuzzyStage{index: index, threshold: threshold}
}

func (s *FuzzyStage) Name() string { return StageFuzzy }

func (s *FuzzyStage) Resolve(sig string) (mapping.APIMapping, float64, bool) {
	best, bestScore := "", -1.0
	for _, candidate := range s.index.Signatures() {
		if score := Similarity(sig, candidate); score > bestScore {
			best, bestScore = candidate, score
		}
	}
	if best == "" || bestScore < s.threshold {
		return mapping.APIMapping{}, max(bestScore, 0), false
	}
	m, ok := s.index.FindBySignature(best)
	if !ok {
		return mapping.APIMapping{}, 0, false
	}
	return m.WithNotePrefix(mapping.PartialMatchMarker), bestScore, true
}

type LegacyStage struct {
	table *LegacyTable
}

func NewLegacyStage(table *LegacyTable) *LegacyStage {
	return &LegacyStage{table: table}
}

func (s *LegacyStage) Name() string { return StageLegacy }

func (s *LegacyStage) Resolve(sig string) (mapping.APIMapping, float64, bool) {
	if s.table == nil {
		return mapping.APIMapping{}, 0, false
	}
	m, ok := s.table.Lookup(sig)
	if !ok {
		return mapping.APIMapping{}, 0, false
	}
	return m, 1, true
}

type SynthesisStage struct{}

func NewSynthesisStage() *SynthesisStage { return &SynthesisStage{} }

func (s *SynthesisStage) Name() string { return StageSynthesis }

func (s *SynthesisStage) Resolve(sig string) (mapping.APIMapping, float64, bool) {
	return Synthesize(sig), 0, true
}

// Synthesize builds the placeholder mapping returned when nothing matched.
func Synthesize(sig string) mapping.APIMapping {
	return mapping.APIMapping{
		ID:                "synthetic:" + sig,
		JavaSignature:     sig,
		BedrockEquivalent: fmt.Sprintf("/* untranslatable: %s */", sig),
		ConversionType:    mapping.Impossible,
		Notes:             fmt.Sprintf("No known equivalent for %s; manual translation required.", sig),
		Version:           1,
	}
}
