package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// rateLimitSubjectPrefix is the Redis key prefix for per-subject limits.
	rateLimitSubjectPrefix = "ratelimit:subject:"
	// rateLimitTTL bounds how long an idle bucket lives.
	rateLimitTTL = 120 * time.Second
)

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter decides whether a caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (*RateLimitResult, error)
}

// tokenBucketScript is a Lua script implementing the token bucket algorithm.
// It's atomic and handles token refill and consumption in a single operation.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])      -- tokens per second
	local burst = tonumber(ARGV[2])     -- max tokens (bucket capacity)
	local now = tonumber(ARGV[3])       -- current time in seconds
	local ttl = tonumber(ARGV[4])       -- TTL in seconds

	local data = redis.call('HMGET', key, 'tokens', 'last_update')
	local tokens = tonumber(data[1]) or burst
	local last_update = tonumber(data[2]) or now

	local elapsed = math.max(0, now - last_update)
	tokens = math.min(burst, tokens + (elapsed * rate))

	local allowed = 0
	local retry_after = 0

	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	else
		retry_after = math.ceil((1 - tokens) / rate)
	end

	redis.call('HSET', key, 'tokens', tokens, 'last_update', now)
	redis.call('EXPIRE', key, ttl)

	return {allowed, retry_after, math.floor(tokens)}
`)

// RedisLimiter is a token bucket shared by every instance through Redis.
type RedisLimiter struct {
	cache         *Cache
	ratePerMinute int
	burst         int
	now           func() time.Time
}

// NewRedisLimiter creates a per-key token bucket allowing ratePerMinute
// sustained requests with the given burst.
func NewRedisLimiter(c *Cache, ratePerMinute, burst int) *RedisLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RedisLimiter{cache: c, ratePerMinute: ratePerMinute, burst: burst, now: time.Now}
}

// Allow consumes one token for key.
// Redis errors are returned alongside an allowing result so callers can fail open.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (*RateLimitResult, error) {
	now := l.now()
	if l.ratePerMinute <= 0 {
		return &RateLimitResult{Allowed: true, ResetAt: now.Add(time.Minute)}, nil
	}

	ratePerSecond := float64(l.ratePerMinute) / 60.0
	result, err := tokenBucketScript.Run(ctx, l.cache.client,
		[]string{rateLimitSubjectPrefix + key},
		ratePerSecond, l.burst, now.Unix(), int(rateLimitTTL.Seconds()),
	).Int64Slice()
	if err != nil {
		return &RateLimitResult{
			Allowed:   true,
			Limit:     l.ratePerMinute,
			Remaining: int64(l.burst),
			ResetAt:   now.Add(time.Minute),
		}, fmt.Errorf("rate limit script: %w", err)
	}

	return &RateLimitResult{
		Allowed:    result[0] == 1,
		Limit:      l.ratePerMinute,
		Remaining:  result[2],
		ResetAt:    now.Add(time.Duration(float64(time.Second) / ratePerSecond)),
		RetryAfter: time.Duration(result[1]) * time.Second,
	}, nil
}
