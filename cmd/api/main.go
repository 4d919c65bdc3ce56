package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	server "todolist/internal/adapter/http"
	"todolist/pkg/config"
	"todolist/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.ServiceName, cfg.LokiURL)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}

	if err := server.StartServerWithConfig(ctx, cfg, log); err != nil {
		slog.Error("Server failed", "error", err)
		log.Sync()
		os.Exit(1)
	}

	log.Sync()
}
