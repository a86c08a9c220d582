package llm

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyPrompt is returned when Generate is called without a prompt.
var ErrEmptyPrompt = errors.New("llm: prompt required")

// Completion is the result of a single generation call.
type Completion struct {
	Text          string
	InputTokens   int
	OutputTokens  int
	EstimatedCost float64
}

// Empty reports whether the completion carries no usable text.
func (c Completion) Empty() bool {
	return strings.TrimSpace(c.Text) == ""
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (Completion, error)
}

// Prober verifies a backend is reachable and the model usable before a job
// starts.
type Prober interface {
	Probe(ctx context.Context) error
}

// Describer names the provider and model behind a generator.
type Describer interface {
	Provider() string
	Model() string
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (Completion, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (Completion, error) {
	return f(ctx, prompt)
}

func checkPrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	return nil
}

func summarizeSnippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return "<empty>"
	}
	const limit = 160
	if runes := []rune(clean); len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
