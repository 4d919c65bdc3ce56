package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	. "todolist/internal/adapter/http/helper"
	"todolist/internal/core/model/response"
	"todolist/internal/core/port"
	"todolist/internal/core/telemetry"
	"todolist/pkg/config"
	"todolist/pkg/logger"
)

type RateLimiter struct {
	store   port.RateLimitStore
	rules   map[string]config.RateLimitConfig
	logger  *logger.Logger
	metrics *telemetry.AppMetrics
}

// NewRateLimiter applies rules keyed by "METHOD /route", falling back to the
// config.DefaultRateLimitKey rule. Counters are kept per client ip in store.
func NewRateLimiter(store port.RateLimitStore, rules map[string]config.RateLimitConfig, log *logger.Logger, metrics *telemetry.AppMetrics) *RateLimiter {
	return &RateLimiter{
		store:   store,
		rules:   rules,
		logger:  log,
		metrics: metrics,
	}
}

func (rl *RateLimiter) rule(methodPath string) config.RateLimitConfig {
	if rule, exists := rl.rules[methodPath]; exists {
		return rule
	}

	return rl.rules[config.DefaultRateLimitKey]
}

func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		methodPath := c.Request.Method + " " + path
		rule := rl.rule(methodPath)
		key := fmt.Sprintf("rate_limit:%s:%s", methodPath, c.ClientIP())

		count, resetTime, err := rl.store.Hit(ctx, key, rule.Window)

		if err != nil {
			rl.logger.ErrorWithTrace(ctx, "Rate limit check failed",
				zap.String("key", key),
				zap.Error(err))
			c.Next()
			return
		}

		remaining := rule.Requests - count
		if remaining < 0 {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rule.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if count > rule.Requests {
			if rl.metrics != nil {
				rl.metrics.RecordRateLimitHit(ctx, path)
			}

			rl.logger.WarnWithTrace(ctx, "Rate limit exceeded",
				zap.String("key", key),
				zap.Int("limit", rule.Requests),
				zap.Duration("window", rule.Window))

			retryAfter := int(time.Until(resetTime).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			SendError(c, http.StatusTooManyRequests, "RATE_LIMITED", []response.ValidationError{
				{
					Field:   "request",
					Message: fmt.Sprintf("Too many requests. Limit: %d per %v", rule.Requests, rule.Window),
				},
			})
			return
		}

		if rl.metrics != nil {
			rl.metrics.RecordRateLimitAllowed(ctx, path)
		}

		c.Next()
	}
}
