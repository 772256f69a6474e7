package llm

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/config"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/pkg/logger"
)

// BreakerGenerator wraps a Generator with circuit breaking. Rate limits and
// empty responses are answers from a healthy service and never trip it.
type BreakerGenerator struct {
	next Generator
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerGenerator creates a breaker named name.
func NewBreakerGenerator(next Generator, cfg config.BreakerConfig, name string, log *logger.Logger) *BreakerGenerator {
	if log == nil {
		log = logger.Discard()
	}
	minRequests := cfg.MinRequests
	if minRequests == 0 {
		minRequests = 3
	}

	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= minRequests && failureRatio >= cfg.ReadyToTripRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || IsRateLimit(err) || IsEmptyResponse(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}

	return &BreakerGenerator{
		next: next,
		cb:   gobreaker.NewCircuitBreaker(st),
	}
}

// Generate implements Generator. While open it fails fast with
// gobreaker.ErrOpenState.
func (b *BreakerGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Generate(ctx, prompt)
	})
	if err != nil {
		return "", err
	}
	return resp.(string), nil
}

// State returns the breaker state.
func (b *BreakerGenerator) State() gobreaker.State {
	return b.cb.State()
}

// Wrap assembles the call chain used by the reranker: the provider client,
// an optional breaker, then pacing in front of every remote call.
func Wrap(gen Generator, interval time.Duration, breaker config.BreakerConfig, log *logger.Logger) Generator {
	if breaker.Enabled {
		gen = NewBreakerGenerator(gen, breaker, "llm", log)
	}
	return NewPacedGenerator(gen, interval)
}
