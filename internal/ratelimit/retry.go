package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ProdigyRahul/Codojo/internal/port"
)

// Retrier reruns an operation with exponential backoff, but only when the
// operation reports a rate limit (port.ErrRateLimited). Any other error
// propagates immediately: a malformed request or a not-found must fail fast.
type Retrier struct {
	delays []time.Duration
}

// NewRetrier builds a retrier that allows maxRetries retries with doubling
// delays seeded at seed. A non-zero cap bounds each individual delay.
func NewRetrier(maxRetries int, seed, cap time.Duration) *Retrier {
	delays := make([]time.Duration, maxRetries)
	d := seed
	for i := range delays {
		if cap > 0 && d > cap {
			d = cap
		}
		delays[i] = d
		d *= 2
	}
	return &Retrier{delays: delays}
}

// Do runs fn until it succeeds, fails with a non-rate-limit error, or
// exhausts the retry budget. Waits are interruptible by ctx.
func (r *Retrier) Do(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, port.ErrRateLimited) {
			return lastErr
		}
		if attempt >= len(r.delays) {
			return fmt.Errorf("rate limit retries exhausted: %w", lastErr)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.delays[attempt]):
		}
	}
}
