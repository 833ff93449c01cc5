package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_Do_NeverExceedsCeiling(t *testing.T) {
	l := NewLimiter(5)

	var active, peak atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.Do(context.Background(), func() error {
				n := active.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				active.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int64(5))
	assert.Equal(t, int64(0), active.Load())
}

func TestLimiter_Do_PropagatesError(t *testing.T) {
	l := NewLimiter(1)

	err := l.Do(context.Background(), func() error {
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	// The slot must have been released.
	require.NoError(t, l.Do(context.Background(), func() error { return nil }))
}

func TestLimiter_Do_CanceledContext(t *testing.T) {
	l := NewLimiter(1)

	release := make(chan struct{})
	go func() {
		_ = l.Do(context.Background(), func() error {
			<-release
			return nil
		})
	}()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.Do(ctx, func() error { return nil })
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
}
