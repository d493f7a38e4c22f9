// internal/app/system/ratelimit/redis.go
package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisLimiter counts per-key attempts in Redis so the limit holds across
// instances. INCR starts or bumps the window; the first hit attaches the
// window TTL. Redis being down must never lock users out, so errors allow
// the request through.
type RedisLimiter struct {
	rdb     *redis.Client
	prefix  string
	limit   int64
	window  time.Duration
	timeout time.Duration
}

// NewRedis creates a Redis-backed limiter. prefix namespaces the keys so
// several limiters can share one database.
func NewRedis(rdb *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		rdb:     rdb,
		prefix:  prefix,
		limit:   int64(limit),
		window:  window,
		timeout: 2 * time.Second,
	}
}

func (l *RedisLimiter) key(key string) string {
	return "ratelimit:" + l.prefix + ":" + key
}

// Allow increments the counter for key and reports whether it is within
// the limit. Fails open on Redis errors.
func (l *RedisLimiter) Allow(key string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	k := l.key(key)
	count, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		zap.L().Warn("rate limit incr failed, allowing request",
			zap.String("key", k),
			zap.Error(err))
		return true
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, k, l.window).Err(); err != nil {
			zap.L().Warn("rate limit expire failed",
				zap.String("key", k),
				zap.Error(err))
		}
	}
	return count <= l.limit
}

// Reset clears the counter for key.
func (l *RedisLimiter) Reset(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	if err := l.rdb.Del(ctx, l.key(key)).Err(); err != nil {
		zap.L().Warn("rate limit reset failed",
			zap.String("key", l.key(key)),
			zap.Error(err))
	}
}
