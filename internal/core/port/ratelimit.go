package port

import (
	"context"
	"time"
)

// RateLimitStore counts hits per key inside a fixed window.
// Hit returns the count including this hit and when the current window resets.
type RateLimitStore interface {
	Hit(ctx context.Context, key string, window time.Duration) (count int, resetAt time.Time, err error)
	Close() error
}
