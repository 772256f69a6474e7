package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// PacedGenerator waits for a limiter token before every call, keeping
// requests at least one interval apart.
type PacedGenerator struct {
	next    Generator
	limiter *rate.Limiter
}

// NewPacedGenerator allows one call per interval. An interval <= 0 disables
// pacing.
func NewPacedGenerator(next Generator, interval time.Duration) *PacedGenerator {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &PacedGenerator{
		next:    next,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Generate implements Generator.
func (p *PacedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return p.next.Generate(ctx, prompt)
}
