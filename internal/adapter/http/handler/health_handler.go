package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	. "todolist/internal/adapter/http/helper"
	"todolist/internal/core/domain"
	"todolist/internal/core/port"
	"todolist/pkg/logger"
)

type HealthHandler struct {
	pinger port.Pinger
	Logger *logger.Logger
}

func NewHealthHandler(pinger port.Pinger, log *logger.Logger) *HealthHandler {
	if log == nil {
		log = logger.NewNop()
	}

	return &HealthHandler{pinger: pinger, Logger: log}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.pinger.PingContext(ctx); err != nil {
		h.Logger.WarnWithTrace(ctx, "Health check failed", zap.Error(err))
		SendDomainError(c, domain.PoolError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
