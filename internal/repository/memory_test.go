package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRateLimiter(t *testing.T) {
	limiter := NewMemoryRateLimiter()
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	t.Run("RateLimit", func(t *testing.T) {
		allowed, err := limiter.CheckRateLimit(ctx, "user:456", 2, time.Second)
		require.NoError(t, err)
		assert.True(t, allowed)
		allowed, _ = limiter.CheckRateLimit(ctx, "user:456", 2, time.Second)
		assert.True(t, allowed)
		allowed, _ = limiter.CheckRateLimit(ctx, "user:456", 2, time.Second)
		assert.False(t, allowed)

		now = now.Add(time.Second + 10*time.Millisecond)
		allowed, _ = limiter.CheckRateLimit(ctx, "user:456", 2, time.Second)
		assert.True(t, allowed)
	})

	t.Run("Sweep", func(t *testing.T) {
		_, _ = limiter.CheckRateLimit(ctx, "user:old", 1, time.Second)
		now = now.Add(2 * time.Second)
		limiter.Sweep()

		limiter.mu.Lock()
		_, ok := limiter.entries["user:old"]
		limiter.mu.Unlock()
		assert.False(t, ok)
	})
}
