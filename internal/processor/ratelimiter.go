package processor

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/logger"
)

// DefaultWriteRPS is the write rate used when none is configured.
const DefaultWriteRPS = 20

// RateLimiter provides rate limiting for database writes
type RateLimiter struct {
	limiter *rate.Limiter
	logger  logger.Logger
}

// NewRateLimiter creates a new rate limiter
// rps: operations per second
// burst: maximum burst size
func NewRateLimiter(rps, burst int, log logger.Logger) *RateLimiter {
	if rps <= 0 {
		rps = DefaultWriteRPS
	}
	if burst <= 0 {
		burst = rps
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:  log,
	}
}

// Wait waits until rate limit allows the operation
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		r.logger.Warn("Rate limiter wait failed", logger.Error(err))
		return err
	}
	return nil
}

// Allow checks if an operation is allowed without waiting
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// SetLimit updates the rate limit
func (r *RateLimiter) SetLimit(rps int) {
	r.limiter.SetLimit(rate.Limit(rps))
	r.logger.Info("Rate limit updated", logger.Int("new_rps", rps))
}

// SetBurst updates the burst size
func (r *RateLimiter) SetBurst(burst int) {
	r.limiter.SetBurst(burst)
	r.logger.Info("Burst size updated", logger.Int("new_burst", burst))
}
