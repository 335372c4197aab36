package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aman-churiwal/getyoursite/internal/storage"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SlidingWindowLimiter is the stricter alternative to the fixed window: it
// never admits more than limit requests in any span of length window, at
// the cost of one sorted-set entry per admitted request.
type SlidingWindowLimiter struct {
	redis  *storage.RedisClient
	scope  string
	limit  int
	window time.Duration

	Clock func() time.Time
}

// Trim, count and conditional add run atomically on the server.
var slidingWindowScript = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '0', ARGV[1])
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[3]) then
	return 0
end
redis.call('ZADD', KEYS[1], ARGV[2], ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return 1
`)

func NewSlidingWindowLimiter(redis *storage.RedisClient, scope string, limit int, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		redis:  redis,
		scope:  scope,
		limit:  limit,
		window: window,
	}
}

func (s *SlidingWindowLimiter) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

func (s *SlidingWindowLimiter) redisKey(key string) string {
	return fmt.Sprintf("ratelimit:sliding:%s:%s", s.scope, key)
}

func (s *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := s.now()
	windowStart := now.Add(-s.window)

	admitted, err := s.redis.RunScript(ctx, slidingWindowScript,
		[]string{s.redisKey(key)},
		strconv.FormatInt(windowStart.UnixNano(), 10),
		strconv.FormatInt(now.UnixNano(), 10),
		s.limit,
		uuid.NewString(),
		s.window.Milliseconds(),
	)
	if err != nil {
		return false, err
	}

	return admitted == 1, nil
}

func (s *SlidingWindowLimiter) Remaining(ctx context.Context, key string) (int, error) {
	now := s.now()
	windowStart := now.Add(-s.window)

	// Count requests in current window
	count, err := s.redis.ZCount(ctx, s.redisKey(key),
		"("+strconv.FormatInt(windowStart.UnixNano(), 10),
		strconv.FormatInt(now.UnixNano(), 10))
	if err != nil {
		return 0, err
	}

	remaining := s.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (s *SlidingWindowLimiter) Limit() int {
	return s.limit
}

func (s *SlidingWindowLimiter) Window() time.Duration {
	return s.window
}

func (s *SlidingWindowLimiter) Reset(ctx context.Context, key string) (time.Time, error) {
	// Get the oldest entry in the sorted set
	oldest, err := s.redis.ZRangeWithScores(ctx, s.redisKey(key), 0, 0)
	if err != nil || len(oldest) == 0 {
		// No entries, window resets now
		return s.now(), nil
	}

	// Reset time is when the oldest entry expires (oldest + window)
	return time.Unix(0, int64(oldest[0].Score)).Add(s.window), nil
}
