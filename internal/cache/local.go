package cache

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

// LocalLimiter keeps token buckets in process memory.
// Used when no Redis is configured; limits are per instance.
type LocalLimiter struct {
	ratePerMinute int
	burst         int

	mu       sync.Mutex
	limiters *expirable.LRU[string, *rate.Limiter]
	now      func() time.Time
}

// NewLocalLimiter creates a limiter tracking at most maxKeys callers.
// Idle buckets are forgotten after rateLimitTTL.
func NewLocalLimiter(ratePerMinute, burst, maxKeys int) *LocalLimiter {
	if burst < 1 {
		burst = 1
	}
	return &LocalLimiter{
		ratePerMinute: ratePerMinute,
		burst:         burst,
		limiters:      expirable.NewLRU[string, *rate.Limiter](maxKeys, nil, rateLimitTTL),
		now:           time.Now,
	}
}

// Allow consumes one token for key.
func (l *LocalLimiter) Allow(ctx context.Context, key string) (*RateLimitResult, error) {
	now := l.now()
	if l.ratePerMinute <= 0 {
		return &RateLimitResult{Allowed: true, ResetAt: now.Add(time.Minute)}, nil
	}

	lim := l.limiterFor(key)
	r := lim.ReserveN(now, 1)
	delay := r.DelayFrom(now)

	result := &RateLimitResult{
		Limit:     l.ratePerMinute,
		Remaining: int64(math.Max(0, math.Floor(lim.TokensAt(now)))),
		ResetAt:   now.Add(time.Duration(float64(time.Minute) / float64(l.ratePerMinute))),
	}
	if delay > 0 {
		r.CancelAt(now)
		result.RetryAfter = delay.Round(time.Second)
		if result.RetryAfter < time.Second {
			result.RetryAfter = time.Second
		}
		return result, nil
	}

	result.Allowed = true
	return result, nil
}

func (l *LocalLimiter) limiterFor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.limiters.Get(key); ok {
		return lim
	}
	lim := rate.NewLimiter(rate.Limit(float64(l.ratePerMinute)/60.0), l.burst)
	l.limiters.Add(key, lim)
	return lim
}
