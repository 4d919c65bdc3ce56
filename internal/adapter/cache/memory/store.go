package memory

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"todolist/internal/core/port"
)

type entry struct {
	Count     int
	ResetTime time.Time
}

// RateLimitStore keeps fixed-window counters in process memory.
type RateLimitStore struct {
	cache *cache.Cache
	mutex sync.Mutex
	now   func() time.Time
}

func NewRateLimitStore() *RateLimitStore {
	return &RateLimitStore{
		cache: cache.New(5*time.Minute, 10*time.Minute),
		now:   time.Now,
	}
}

var _ port.RateLimitStore = (*RateLimitStore)(nil)

func (s *RateLimitStore) Hit(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	now := s.now()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if cached, found := s.cache.Get(key); found {
		current := cached.(entry)

		if now.Before(current.ResetTime) {
			current.Count++
			s.cache.Set(key, current, current.ResetTime.Sub(now))
			return current.Count, current.ResetTime, nil
		}
	}

	fresh := entry{Count: 1, ResetTime: now.Add(window)}
	s.cache.Set(key, fresh, window)

	return fresh.Count, fresh.ResetTime, nil
}

func (s *RateLimitStore) Close() error {
	s.cache.Flush()
	return nil
}
