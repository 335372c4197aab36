package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aman-churiwal/getyoursite/internal/storage"
	"github.com/redis/go-redis/v9"
)

// FixedWindowLimiter keeps one counter per key in Redis. The counter's TTL
// is set on the first INCR, so the window is anchored at the key's first
// request just like MemoryFixedWindow.
type FixedWindowLimiter struct {
	redis  *storage.RedisClient
	scope  string
	limit  int
	window time.Duration

	Clock func() time.Time
}

func NewFixedWindow(redis *storage.RedisClient, scope string, limit int, window time.Duration) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		redis:  redis,
		scope:  scope,
		limit:  limit,
		window: window,
	}
}

func (f *FixedWindowLimiter) now() time.Time {
	if f.Clock != nil {
		return f.Clock()
	}
	return time.Now()
}

func (f *FixedWindowLimiter) redisKey(key string) string {
	return fmt.Sprintf("ratelimit:fixed:%s:%s", f.scope, key)
}

func (f *FixedWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := f.redisKey(key)

	count, err := f.redis.Incr(ctx, redisKey)
	if err != nil {
		return false, err
	}

	if count == 1 {
		if err := f.redis.Expire(ctx, redisKey, f.window); err != nil {
			return false, err
		}
	} else {
		ttl, err := f.redis.TTL(ctx, redisKey)
		if err != nil {
			return false, fmt.Errorf("read window ttl: %w", err)
		}
		// the EXPIRE after the first INCR never landed
		if ttl < 0 {
			if err := f.redis.Expire(ctx, redisKey, f.window); err != nil {
				return false, err
			}
		}
	}

	return count <= int64(f.limit), nil
}

func (f *FixedWindowLimiter) Remaining(ctx context.Context, key string) (int, error) {
	val, err := f.redis.Get(ctx, f.redisKey(key))
	if errors.Is(err, redis.Nil) {
		return f.limit, nil
	}

	if err != nil {
		return 0, err
	}

	count, _ := strconv.Atoi(val)
	remaining := f.limit - count

	if remaining < 0 {
		remaining = 0
	}

	return remaining, nil
}

func (f *FixedWindowLimiter) Limit() int {
	return f.limit
}

func (f *FixedWindowLimiter) Window() time.Duration {
	return f.window
}

// Returns the time at which the limit resets
func (f *FixedWindowLimiter) Reset(ctx context.Context, key string) (time.Time, error) {
	ttl, err := f.redis.TTL(ctx, f.redisKey(key))
	if err != nil {
		return time.Time{}, err
	}
	if ttl <= 0 {
		return f.now(), nil
	}
	return f.now().Add(ttl), nil
}
