package redis_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/gomega"

	"todolist/internal/adapter/cache/redis"
)

func TestRateLimitStore_Hit(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	RegisterTestingT(t)

	store, err := redis.NewRateLimitStore(context.Background(), url)
	Expect(err).To(BeNil())
	defer store.Close()

	key := "test:" + uuid.NewString()

	first, resetAt, err := store.Hit(context.Background(), key, time.Minute)
	Expect(err).To(BeNil())
	Expect(first).To(Equal(1))
	Expect(resetAt).To(BeTemporally("~", time.Now().Add(time.Minute), 2*time.Second))

	second, _, err := store.Hit(context.Background(), key, time.Minute)
	Expect(err).To(BeNil())
	Expect(second).To(Equal(2))
}

func TestNewRateLimitStore_InvalidURL(t *testing.T) {
	RegisterTestingT(t)

	_, err := redis.NewRateLimitStore(context.Background(), "not a url")

	Expect(err).ToNot(BeNil())
}
