package ratelimit

import (
	"fmt"
	"time"

	"github.com/aman-churiwal/getyoursite/internal/storage"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"

	AlgorithmFixedWindow   = "fixed_window"
	AlgorithmSlidingWindow = "sliding_window"
)

// NewLimiter builds the limiter for one scope ("contact", "login", ...).
// Memory limiters are per-instance, so scopes never share counters.
func NewLimiter(redis *storage.RedisClient, backend, algorithm, scope string, limit int, window time.Duration) (Limiter, error) {
	switch backend {
	case BackendMemory, "":
		if algorithm != AlgorithmFixedWindow && algorithm != "" {
			return nil, fmt.Errorf("algorithm %q is not available on the memory backend", algorithm)
		}
		return NewMemoryFixedWindow(limit, window), nil
	case BackendRedis:
		if redis == nil {
			return nil, fmt.Errorf("redis backend selected but no redis client configured")
		}
		switch algorithm {
		case AlgorithmSlidingWindow:
			return NewSlidingWindowLimiter(redis, scope, limit, window), nil
		case AlgorithmFixedWindow, "":
			return NewFixedWindow(redis, scope, limit, window), nil
		default:
			return nil, fmt.Errorf("unknown rate limit algorithm: %s", algorithm)
		}
	default:
		return nil, fmt.Errorf("unknown rate limit backend: %s", backend)
	}
}
