package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/config"
)

// scripted returns the queued errors in order, then "ok".
func scripted(errs ...error) (Generator, *int) {
	calls := 0
	return GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		calls++
		if calls <= len(errs) && errs[calls-1] != nil {
			return "", errs[calls-1]
		}
		return "ok", nil
	}), &calls
}

func TestRetryPolicy_RetriesRateLimits(t *testing.T) {
	gen, calls := scripted(&RateLimitError{}, &RateLimitError{})
	var waits []time.Duration
	p := RetryPolicy{
		Backoff: time.Millisecond,
		OnRetry: func(attempt int, wait time.Duration, err error) { waits = append(waits, wait) },
	}

	out := p.Do(context.Background(), gen, "p")

	assert.Equal(t, Success, out.Kind)
	assert.Equal(t, "ok", out.Text)
	assert.Equal(t, 3, out.Attempts)
	assert.Equal(t, 3, *calls)
	assert.Equal(t, []time.Duration{time.Millisecond, time.Millisecond}, waits)
}

func TestRetryPolicy_BoundedAttempts(t *testing.T) {
	gen, calls := scripted(&RateLimitError{}, &RateLimitError{}, &RateLimitError{})
	p := RetryPolicy{MaxAttempts: 2, Backoff: time.Millisecond}

	out := p.Do(context.Background(), gen, "p")

	assert.Equal(t, Transient, out.Kind)
	assert.True(t, IsRateLimit(out.Err))
	assert.Equal(t, 2, out.Attempts)
	assert.Equal(t, 2, *calls)
}

func TestRetryPolicy_PermanentErrors(t *testing.T) {
	gen, calls := scripted(&APIError{StatusCode: 500, Message: "boom"})
	p := RetryPolicy{Backoff: time.Millisecond}

	out := p.Do(context.Background(), gen, "p")

	assert.Equal(t, Permanent, out.Kind)
	assert.Equal(t, 1, *calls)
	assert.Equal(t, "permanent", out.Kind.String())
}

func TestRetryPolicy_EmptyResponseIsSuccess(t *testing.T) {
	gen, _ := scripted(&EmptyResponseError{Message: "blocked"})

	out := DefaultRetryPolicy().Do(context.Background(), gen, "p")

	assert.Equal(t, Success, out.Kind)
	assert.Empty(t, out.Text)
	assert.True(t, IsEmptyResponse(out.Err))
}

func TestRetryPolicy_CancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gen, _ := scripted(&RateLimitError{})
	p := RetryPolicy{
		Backoff: time.Hour,
		OnRetry: func(int, time.Duration, error) { cancel() },
	}

	out := p.Do(ctx, gen, "p")

	assert.Equal(t, Permanent, out.Kind)
	assert.ErrorIs(t, out.Err, context.Canceled)
}

func TestRetryPolicy_Delay(t *testing.T) {
	p := RetryPolicy{Backoff: time.Second, Multiplier: 2, MaxBackoff: 5 * time.Second}

	assert.Equal(t, time.Second, p.delay(1))
	assert.Equal(t, 2*time.Second, p.delay(2))
	assert.Equal(t, 4*time.Second, p.delay(3))
	assert.Equal(t, 5*time.Second, p.delay(4))

	fixed := DefaultRetryPolicy()
	assert.Equal(t, 30*time.Second, fixed.delay(7))
}

func TestBreakerGenerator_IgnoresRateLimits(t *testing.T) {
	gen := GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", &RateLimitError{}
	})
	b := NewBreakerGenerator(gen, config.BreakerConfig{
		Enabled: true, MaxRequests: 1, Timeout: time.Minute, MinRequests: 2, ReadyToTripRatio: 0.5,
	}, "test", nil)

	for i := 0; i < 5; i++ {
		_, err := b.Generate(context.Background(), "p")
		require.True(t, IsRateLimit(err))
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreakerGenerator_TripsOnFailures(t *testing.T) {
	gen := GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("connection refused")
	})
	b := NewBreakerGenerator(gen, config.BreakerConfig{
		Enabled: true, MaxRequests: 1, Timeout: time.Minute, MinRequests: 2, ReadyToTripRatio: 0.5,
	}, "test", nil)

	_, _ = b.Generate(context.Background(), "p")
	_, _ = b.Generate(context.Background(), "p")

	assert.Equal(t, gobreaker.StateOpen, b.State())
	_, err := b.Generate(context.Background(), "p")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)

	out := RetryPolicy{Backoff: time.Millisecond}.Do(context.Background(), b, "p")
	assert.Equal(t, Permanent, out.Kind)
}

func TestPacedGenerator_SpacesCalls(t *testing.T) {
	gen, calls := scripted()
	paced := NewPacedGenerator(gen, 20*time.Millisecond)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := paced.Generate(context.Background(), "p")
		require.NoError(t, err)
	}

	assert.Equal(t, 3, *calls)
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
}

func TestPacedGenerator_Cancelled(t *testing.T) {
	gen, calls := scripted()
	paced := NewPacedGenerator(gen, time.Hour)

	_, err := paced.Generate(context.Background(), "p")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = paced.Generate(ctx, "p")
	assert.Error(t, err)
	assert.Equal(t, 1, *calls)
}

func TestWrap(t *testing.T) {
	gen, _ := scripted()

	plain := Wrap(gen, 0, config.BreakerConfig{}, nil)
	assert.IsType(t, &PacedGenerator{}, plain)

	text, err := plain.Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
}
