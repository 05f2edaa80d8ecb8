package papersources

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRateLimiter(t *testing.T) {
	t.Run("creates limiter with specified rate and burst", func(t *testing.T) {
		rl := NewRateLimiter(10, 5)

		require.NotNil(t, rl)
		require.NotNil(t, rl.limiter)

		for i := 0; i < 5; i++ {
			assert.True(t, rl.Allow(), "should allow request %d within burst", i+1)
		}
	})

	t.Run("creates limiter with arXiv rate (3 req/sec)", func(t *testing.T) {
		rl := NewRateLimiter(3, 3)

		for i := 0; i < 3; i++ {
			assert.True(t, rl.Allow())
		}
		// 4th request should be denied immediately
		assert.False(t, rl.Allow())
	})

	t.Run("creates limiter with fractional rate", func(t *testing.T) {
		rl := NewRateLimiter(0.5, 1)

		assert.True(t, rl.Allow())
		assert.False(t, rl.Allow())
	})
}

func TestRateLimiter_Wait(t *testing.T) {
	t.Run("returns immediately within burst", func(t *testing.T) {
		rl := NewRateLimiter(1, 2)

		start := time.Now()
		require.NoError(t, rl.Wait(context.Background()))
		require.NoError(t, rl.Wait(context.Background()))
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("blocks once burst is exhausted", func(t *testing.T) {
		rl := NewRateLimiter(20, 1)

		require.NoError(t, rl.Wait(context.Background()))
		start := time.Now()
		require.NoError(t, rl.Wait(context.Background()))
		assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	})
}

func TestRateLimiter_WaitContextCanceled(t *testing.T) {
	t.Run("returns error for already canceled context", func(t *testing.T) {
		rl := NewRateLimiter(0.1, 1)
		require.True(t, rl.Allow())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.Error(t, rl.Wait(ctx))
	})

	t.Run("returns error when deadline is shorter than the wait", func(t *testing.T) {
		rl := NewRateLimiter(0.1, 1)
		require.True(t, rl.Allow())

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		assert.Error(t, rl.Wait(ctx))
	})
}

func TestRateLimiter_Tokens(t *testing.T) {
	rl := NewRateLimiter(1, 3)
	assert.InDelta(t, 3.0, rl.Tokens(), 0.01)

	rl.Allow()
	assert.InDelta(t, 2.0, rl.Tokens(), 0.05)
}

func TestRateLimiter_Concurrency(t *testing.T) {
	rl := NewRateLimiter(1000, 50)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := rl.Wait(context.Background()); err == nil {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowed)
}
