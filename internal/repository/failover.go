package repository

import (
	"context"
	"sync"
	"time"

	"shareit/internal/domain"

	"github.com/rs/zerolog"
)

const defaultRetryAfter = time.Minute

// FailoverRateLimiter uses primary until it errors, then serves from fallback
// and probes primary again once retryAfter has passed.
type FailoverRateLimiter struct {
	primary    domain.RateLimitStore
	fallback   domain.RateLimitStore
	logger     *zerolog.Logger
	retryAfter time.Duration

	mu       sync.Mutex
	isDown   bool
	downedAt time.Time
	now      func() time.Time
}

func NewFailoverRateLimiter(primary, fallback domain.RateLimitStore, logger *zerolog.Logger) *FailoverRateLimiter {
	return &FailoverRateLimiter{
		primary:    primary,
		fallback:   fallback,
		logger:     logger,
		retryAfter: defaultRetryAfter,
		now:        time.Now,
	}
}

func (r *FailoverRateLimiter) usePrimary() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.isDown || r.now().Sub(r.downedAt) > r.retryAfter
}

func (r *FailoverRateLimiter) markDown(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.isDown {
		r.logger.Error().Err(err).Msg("primary rate limit store failed, falling back to memory")
	}
	r.isDown = true
	r.downedAt = r.now()
}

func (r *FailoverRateLimiter) markUp() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.isDown {
		r.logger.Info().Msg("primary rate limit store recovered")
	}
	r.isDown = false
}

func (r *FailoverRateLimiter) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			r.markUp()
			return allowed, nil
		}
		r.markDown(err)
	}

	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}
