package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"todolist/internal/core/port"
)

// RateLimitStore shares fixed-window counters between instances through redis.
type RateLimitStore struct {
	client *goredis.Client
	prefix string
}

func NewRateLimitStore(ctx context.Context, url string) (*RateLimitStore, error) {
	options, err := goredis.ParseURL(url)

	if err != nil {
		return nil, err
	}

	client := goredis.NewClient(options)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RateLimitStore{client: client, prefix: "todolist:"}, nil
}

var _ port.RateLimitStore = (*RateLimitStore)(nil)

func (s *RateLimitStore) Hit(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	key = s.prefix + key

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	ttl := pipe.PTTL(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, err
	}

	remaining := ttl.Val()
	if remaining < 0 {
		remaining = window
	}

	return int(incr.Val()), time.Now().Add(remaining), nil
}

func (s *RateLimitStore) Close() error {
	return s.client.Close()
}
