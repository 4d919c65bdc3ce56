package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	ct "todolist/pkg/context"
	"todolist/pkg/logger"
)

func LoggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.String("request_id", ct.RequestID(c.Request.Context())),
		}

		if c.Writer.Status() >= 500 {
			log.ErrorWithTrace(c.Request.Context(), "HTTP Request", fields...)
			return
		}

		log.InfoWithTrace(c.Request.Context(), "HTTP Request", fields...)
	}
}
