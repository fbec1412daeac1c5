package advisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"modbridge/internal/mapping"
)

// ErrUnavailable is returned while the circuit breaker rejects calls.
var ErrUnavailable = errors.New("advisor temporarily unavailable")

// TextGenerator produces a completion for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type geminiGenerator struct {
	client *genai.Client
	model  string
}

func (g *geminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// GeminiAdvisor suggests translations for mappings the resolver could not
// translate. Calls go through a circuit breaker so a failing provider is
// not retried on every lookup.
type GeminiAdvisor struct {
	gen    TextGenerator
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

func NewGeminiAdvisor(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GeminiAdvisor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return NewAdvisor(&geminiGenerator{client: client, model: model}, logger), nil
}

// NewAdvisor wraps any generator with the breaker and prompt handling.
func NewAdvisor(gen TextGenerator, logger *zap.Logger) *GeminiAdvisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "advisor",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &GeminiAdvisor{gen: gen, cb: cb, logger: logger}
}

// Suggest returns a free-form translation hint for m.
func (a *GeminiAdvisor) Suggest(ctx context.Context, m mapping.APIMapping) (string, error) {
	out, err := a.cb.Execute(func() (interface{}, error) {
		return a.gen.Generate(ctx, BuildSuggestionPrompt(m))
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err != nil {
		a.logger.Warn("advisor request failed",
			zap.String("signature", m.JavaSignature),
			zap.Error(err))
		return "", fmt.Errorf("advisor request failed: %w", err)
	}
	text := cleanMarkdownOutput(out.(string))
	if text == "" {
		return "No suggestion available.", nil
	}
	return text, nil
}
