// Package llm provides text generators for reranking prompts, together with
// the retry, pacing and circuit-breaking wrappers placed around them.
package llm

import (
	"context"
	"fmt"

	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/config"
	apperrors "github.com/FurkiKARA/CENG543-Furkan-KARA/internal/pkg/errors"
)

// Generator turns a prompt into response text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// NewGenerator builds the configured provider client.
func NewGenerator(cfg config.LLMConfig) (Generator, error) {
	switch cfg.Provider {
	case "gemini", "":
		return NewGeminiClient(cfg), nil
	case "openai":
		return NewOpenAIClient(cfg), nil
	default:
		return nil, apperrors.ConfigurationError(fmt.Sprintf("unknown llm provider %q", cfg.Provider))
	}
}
