package llm

import (
	"context"
	"math"
	"time"
)

// OutcomeKind classifies the result of a retried call.
type OutcomeKind int

const (
	// Success carries response text. An empty response is still a success
	// with Text "" and Err describing why.
	Success OutcomeKind = iota
	// Transient means the attempt budget ran out while rate limited.
	Transient
	// Permanent means a non-retryable failure or cancellation.
	Permanent
)

func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case Transient:
		return "transient"
	case Permanent:
		return "permanent"
	}
	return "unknown"
}

// Outcome is the tagged result of RetryPolicy.Do.
type Outcome struct {
	Kind     OutcomeKind
	Text     string
	Err      error
	Attempts int
}

// RetryPolicy retries rate-limited calls with a fixed or growing backoff.
type RetryPolicy struct {
	// MaxAttempts bounds the number of calls; 0 means unbounded.
	MaxAttempts int
	// Backoff is the wait before the first retry.
	Backoff time.Duration
	// Multiplier grows the wait between retries; values <= 1 keep it fixed.
	Multiplier float64
	// MaxBackoff caps the wait when > 0.
	MaxBackoff time.Duration
	// OnRetry, if set, is called before each wait.
	OnRetry func(attempt int, wait time.Duration, err error)
}

// DefaultRetryPolicy waits a fixed 30 seconds between unbounded attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Backoff: 30 * time.Second}
}

// Do calls gen until it succeeds, fails with a non-retryable error or the
// attempt budget is spent. Waits honour ctx.
func (p RetryPolicy) Do(ctx context.Context, gen Generator, prompt string) Outcome {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return Outcome{Kind: Permanent, Err: err, Attempts: attempt - 1}
		}

		text, err := gen.Generate(ctx, prompt)
		if err == nil {
			return Outcome{Kind: Success, Text: text, Attempts: attempt}
		}
		if IsEmptyResponse(err) {
			return Outcome{Kind: Success, Err: err, Attempts: attempt}
		}
		if !IsRateLimit(err) {
			return Outcome{Kind: Permanent, Err: err, Attempts: attempt}
		}
		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return Outcome{Kind: Transient, Err: err, Attempts: attempt}
		}

		wait := p.delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, wait, err)
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return Outcome{Kind: Permanent, Err: ctx.Err(), Attempts: attempt}
		}
	}
}

// delay returns Backoff * Multiplier^(attempt-1), capped at MaxBackoff.
func (p RetryPolicy) delay(attempt int) time.Duration {
	d := float64(p.Backoff)
	if p.Multiplier > 1 {
		d *= math.Pow(p.Multiplier, float64(attempt-1))
	}
	if p.MaxBackoff > 0 && d > float64(p.MaxBackoff) {
		d = float64(p.MaxBackoff)
	}
	return time.Duration(d)
}
