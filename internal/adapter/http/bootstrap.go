package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"todolist/internal/core/telemetry"
	"todolist/pkg/config"
	"todolist/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// StartServerWithConfig runs the service until ctx is cancelled. Telemetry,
// pool and schema failures are returned before the listener opens.
func StartServerWithConfig(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) error {
	providers, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		Environment:    cfg.Environment,
		MetricsPort:    cfg.MetricsPort,
		OTLPEndpoint:   cfg.OTLPEndpoint,
	})
	if err != nil {
		return err
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := providers.Shutdown(shutdownCtx); err != nil {
			slog.Error("Telemetry shutdown failed", "error", err)
		}
	}()

	metrics := telemetry.NewAppMetrics(providers.PrometheusRegistry)
	metrics.StartSystemMetrics(ctx)

	container, err := NewContainer(ctx, cfg, log, metrics)
	if err != nil {
		return err
	}
	defer container.Close()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := SetupRouterWithConfig(HandlersConfig{
		TodoHandler:   container.TodoHandler,
		HealthHandler: container.HealthHandler,
	}, RouterDeps{
		Config:         cfg,
		Logger:         log,
		Metrics:        metrics,
		RateLimitStore: container.RateLimitStore,
	})

	listener, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		if err := providers.ServeMetrics(); err != nil {
			log.ErrorWithTrace(ctx, "Metrics server failed", zap.Error(err))
		}
	}()

	slog.Info("Server starting",
		"addr", cfg.Addr(),
		"environment", cfg.Environment,
		"database_driver", cfg.DatabaseDriver,
		"rate_limit_enabled", cfg.RateLimitEnabled,
		"https_enforced", cfg.EnforceHTTPS)

	return serve(ctx, srv, listener)
}

func serve(ctx context.Context, srv *http.Server, listener net.Listener) error {
	serveErr := make(chan error, 1)

	go func() {
		serveErr <- srv.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
