package equivalence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultConfidenceThreshold = 0.8
	DefaultTimeout             = 60 * time.Second
)

// Validation outcomes, as reported to metrics and reports.
const (
	OutcomeEquivalent    = "equivalent"
	OutcomeNotEquivalent = "not_equivalent"
	OutcomeTimeout       = "timeout"
	OutcomeFailed        = "failed"
)

const manualReview = "Manual review required: automated validation could not complete"

// Metrics receives one observation per validation.
type Metrics interface {
	ObserveValidation(outcome string, d time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) ObserveValidation(string, time.Duration) {}

type Options struct {
	ConfidenceThreshold float64
	Timeout             time.Duration
	// Structural overrides the inventory extractor of the structural lens.
	Structural InventoryExtractor
	Logger     *zap.Logger
	Metrics    Metrics
}

// AnalyzerRun records how one analyzer fared during a validation.
type AnalyzerRun struct {
	Name        string
	Similarity  float64
	Differences int
	Duration    time.Duration
	Err         error
}

// Run is a verdict plus the execution details behind it.
type Run struct {
	Verdict   Verdict
	Analyzers []AnalyzerRun
	Duration  time.Duration
	Outcome   string
}

// Validator runs the structural, semantic and behavioral lenses concurrently
// and fuses their results. It is safe for concurrent use.
type Validator struct {
	// structural, semantic, behavioral; fuse depends on this order.
	analyzers [3]Analyzer
	threshold float64
	timeout   time.Duration
	logger    *zap.Logger
	metrics   Metrics
}

func NewValidator(opts Options) *Validator {
	if opts.ConfidenceThreshold <= 0 {
		opts.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = noopMetrics{}
	}
	return &Validator{
		analyzers: [3]Analyzer{
			NewStructuralAnalyzer(opts.Structural),
			NewSemanticAnalyzer(),
			NewBehavioralAnalyzer(),
		},
		threshold: opts.ConfidenceThreshold,
		timeout:   opts.Timeout,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
}

// SelectExtractor returns the inventory extractor for a configured parser
// name. "treesitter" falls back to pattern matching when unavailable.
func SelectExtractor(name string, logger *zap.Logger) InventoryExtractor {
	if name != "treesitter" {
		return PatternExtractor{}
	}
	ts, err := NewTreeSitterExtractor()
	if err != nil {
		if logger != nil {
			logger.Warn("tree-sitter unavailable, using pattern inventories", zap.Error(err))
		}
		return PatternExtractor{}
	}
	return ts
}

// Validate judges whether in.Translated preserves the behavior of
// in.Original. It never fails: errors become a non-equivalent verdict.
func (v *Validator) Validate(ctx context.Context, in Input) Verdict {
	return v.ValidateDetailed(ctx, in).Verdict
}

type analyzerOutcome struct {
	idx    int
	result AnalyzerResult
	run    AnalyzerRun
}

func (v *Validator) ValidateDetailed(ctx context.Context, in Input) Run {
	start := time.Now()
	runCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	// Buffered so an analyzer finishing after the deadline never blocks.
	out := make(chan analyzerOutcome, len(v.analyzers))
	g, gctx := errgroup.WithContext(runCtx)
	for i, a := range v.analyzers {
		g.Go(func() error {
			began := time.Now()
			res, err := runAnalyzer(gctx, a, in)
			out <- analyzerOutcome{
				idx:    i,
				result: res,
				run: AnalyzerRun{
					Name:        a.Name(),
					Similarity:  res.Similarity,
					Differences: len(res.Differences),
					Duration:    time.Since(began),
					Err:         err,
				},
			}
			if err != nil {
				return fmt.Errorf("%s analyzer: %w", a.Name(), err)
			}
			return nil
		})
	}
	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	var (
		waitErr  error
		finished bool
	)
	select {
	case waitErr = <-done:
		finished = true
	case <-runCtx.Done():
		select {
		case waitErr = <-done:
			finished = true
		default:
		}
	}

	results, runs := v.collect(out)
	run := Run{Analyzers: runs}
	switch {
	case ctx.Err() != nil:
		run.Verdict = failureVerdict(ctx.Err())
		run.Outcome = OutcomeFailed
	case finished && waitErr == nil:
		run.Verdict = fuse(results[0], results[1], results[2], v.threshold)
		run.Outcome = OutcomeNotEquivalent
		if run.Verdict.IsEquivalent {
			run.Outcome = OutcomeEquivalent
		}
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		run.Verdict = timeoutVerdict(v.timeout)
		run.Outcome = OutcomeTimeout
	default:
		run.Verdict = failureVerdict(waitErr)
		run.Outcome = OutcomeFailed
	}
	run.Duration = time.Since(start)

	v.metrics.ObserveValidation(run.Outcome, run.Duration)
	fields := []zap.Field{
		zap.String("outcome", run.Outcome),
		zap.Float64("confidence", run.Verdict.Confidence),
		zap.Int("differences", len(run.Verdict.Differences)),
		zap.Duration("duration", run.Duration),
	}
	if in.Context.ModName != "" {
		fields = append(fields, zap.String("mod", in.Context.ModName))
	}
	switch run.Outcome {
	case OutcomeTimeout, OutcomeFailed:
		v.logger.Warn("validation did not complete", fields...)
	default:
		v.logger.Debug("validation finished", fields...)
	}
	return run
}

// collect drains whatever analyzer outcomes have arrived. Analyzers that
// have not reported are listed with an error.
func (v *Validator) collect(out <-chan analyzerOutcome) ([3]AnalyzerResult, []AnalyzerRun) {
	var results [3]AnalyzerResult
	runs := make([]AnalyzerRun, len(v.analyzers))
	reported := make([]bool, len(v.analyzers))
drain:
	for {
		select {
		case o := <-out:
			results[o.idx] = o.result
			runs[o.idx] = o.run
			reported[o.idx] = true
		default:
			break drain
		}
	}
	for i, ok := range reported {
		if !ok {
			runs[i] = AnalyzerRun{Name: v.analyzers[i].Name(), Err: errors.New("did not finish")}
		}
	}
	return results, runs
}

// runAnalyzer converts a panic into an error.
func runAnalyzer(ctx context.Context, a Analyzer, in Input) (res AnalyzerResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = AnalyzerResult{}
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return a.Analyze(ctx, in)
}

func timeoutVerdict(d time.Duration) Verdict {
	return Verdict{
		Differences: []FunctionalDifference{{
			Category:    CategoryPerformance,
			Severity:    SeverityCritical,
			Description: fmt.Sprintf("validation timeout after %s", d),
			Suggestion:  "Reduce the size of the source pair or raise the validation timeout",
		}},
		Recommendations: []string{manualReview},
	}
}

func failureVerdict(err error) Verdict {
	return Verdict{
		Differences: []FunctionalDifference{{
			Category:    CategoryBehavior,
			Severity:    SeverityCritical,
			Description: fmt.Sprintf("validation failed: %v", err),
			Suggestion:  "Inspect the analyzer error and rerun the validation",
		}},
		Recommendations: []string{manualReview},
	}
}
