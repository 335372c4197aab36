package ratelimit

import (
	"context"
	"time"
)

// Limiter decides whether a client key may make another request.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)

	Remaining(ctx context.Context, key string) (int, error)

	Limit() int

	Window() time.Duration

	// Reset returns the time at which the key's current window ends.
	Reset(ctx context.Context, key string) (time.Time, error)
}
