package ratelimit

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Limiter caps the number of operations in flight system-wide so that
// fan-outs across pipelines cannot trip provider rate limits together.
// Waiters are admitted in FIFO order as slots free; nothing is dropped.
type Limiter struct {
	sem *semaphore.Weighted
}

// NewLimiter creates a limiter admitting at most n concurrent operations.
func NewLimiter(n int) *Limiter {
	return &Limiter{sem: semaphore.NewWeighted(int64(n))}
}

// Do blocks until a slot is free (or ctx is done), runs fn, and releases
// the slot when fn returns.
func (l *Limiter) Do(ctx context.Context, fn func() error) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer l.sem.Release(1)
	return fn()
}
