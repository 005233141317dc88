package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Policy controls how many times an operation is attempted and how long to
// wait between attempts.
type Policy struct {
	// Attempts is the total number of tries, including the first. Default 3.
	Attempts int
	// Backoff is the wait before the first retry. Default 500ms.
	Backoff time.Duration
	// MaxBackoff caps any single wait. Default 10s.
	MaxBackoff time.Duration
	// Jitter randomizes each wait by up to this fraction. Default 0.
	Jitter float64
	// Retryable overrides IsTransient.
	Retryable func(err error) bool
	// Operation names the call in retry logs.
	Operation string
}

// DefaultPolicy is used for webhook delivery and store connects.
func DefaultPolicy(operation string) Policy {
	return Policy{
		Attempts:   3,
		Backoff:    500 * time.Millisecond,
		MaxBackoff: 10 * time.Second,
		Jitter:     0.2,
		Operation:  operation,
	}
}

func (p Policy) normalize() Policy {
	if p.Attempts <= 0 {
		p.Attempts = 3
	}
	if p.Backoff <= 0 {
		p.Backoff = 500 * time.Millisecond
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = 10 * time.Second
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	if p.Retryable == nil {
		p.Retryable = IsTransient
	}
	return p
}

// wait returns the delay before retry number attempt (0-based), doubling
// each time.
func (p Policy) wait(attempt int) time.Duration {
	d := float64(p.Backoff) * math.Pow(2, float64(attempt))
	d = math.Min(d, float64(p.MaxBackoff))
	if p.Jitter > 0 {
		d += (rand.Float64()*2 - 1) * d * p.Jitter
	}
	return time.Duration(math.Max(d, 0))
}

// Do runs fn until it succeeds, returns a non-retryable error, runs out of
// attempts, or ctx is done. The last error is returned.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal is Do for operations that return a value.
func DoVal[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.normalize()

	var zero T
	var lastErr error
	for attempt := range p.Attempts {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !p.Retryable(err) || attempt == p.Attempts-1 {
			break
		}

		delay := p.wait(attempt)
		if ra := retryAfter(err); ra > delay {
			delay = min(ra, p.MaxBackoff)
		}
		zap.L().Warn("resilience: retrying",
			zap.String("operation", p.Operation),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}
	return zero, lastErr
}
