package pool

import (
	"context"
	"time"
)

// RateLimiter bounds how often a keyed action may run within a rolling
// window. Used to throttle PIN guessing on sign-in.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
