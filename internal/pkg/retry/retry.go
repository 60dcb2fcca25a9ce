// Package retry provides the resilience policy used around remote store calls:
// bounded retries with exponential backoff and full jitter. Only errors classified
// as transient are retried.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"law-reports-backend/internal/apperr"
)

// Policy is safe to share between goroutines.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration

	// Sleep waits for d or until ctx is done. Tests replace it to avoid real waits.
	Sleep func(ctx context.Context, d time.Duration) error
	Log   *zap.Logger
}

// NewPolicy fills zero values with defaults: 3 retries, 500ms base, 8s cap.
func NewPolicy(maxRetries int, baseDelay, maxDelay time.Duration, log *zap.Logger) *Policy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 8 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Policy{
		MaxRetries: maxRetries,
		BaseDelay:  baseDelay,
		MaxDelay:   maxDelay,
		Sleep:      sleepContext,
		Log:        log,
	}
}

// Do runs fn until it succeeds, returns a non-transient error, or retries run out.
// attempt is zero on the first call.
func (p *Policy) Do(ctx context.Context, op string, fn func(ctx context.Context, attempt int) error) error {
	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := p.Delay(attempt)
			p.Log.Warn("retrying store operation",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Int("max_retries", p.MaxRetries),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			if err := p.Sleep(ctx, delay); err != nil {
				return apperr.Transient(op, lastErr)
			}
		}

		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		if !apperr.IsTransient(err) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// Delay returns random(0, min(MaxDelay, BaseDelay*2^(attempt-1))), floored at 10ms.
func (p *Policy) Delay(attempt int) time.Duration {
	exp := float64(p.BaseDelay) * math.Pow(2, float64(attempt-1))
	if exp > float64(p.MaxDelay) {
		exp = float64(p.MaxDelay)
	}
	d := time.Duration(rand.Float64() * exp)
	if d < 10*time.Millisecond {
		d = 10 * time.Millisecond
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
