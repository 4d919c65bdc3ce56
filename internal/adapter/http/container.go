package http

import (
	"context"
	"errors"
	"fmt"

	"todolist/internal/adapter/cache/memory"
	"todolist/internal/adapter/cache/redis"
	"todolist/internal/adapter/database/postgres"
	pgrepository "todolist/internal/adapter/database/postgres/repository"
	"todolist/internal/adapter/database/sqlite"
	sqliterepository "todolist/internal/adapter/database/sqlite/repository"
	"todolist/internal/adapter/http/handler"
	"todolist/internal/adapter/http/validation"
	"todolist/internal/adapter/http/view"
	"todolist/internal/core/port"
	"todolist/internal/core/service"
	"todolist/internal/core/telemetry"
	"todolist/pkg/config"
	"todolist/pkg/logger"
)

// Container owns the pool and every component built on it. Close releases
// them in reverse order of construction.
type Container struct {
	Pinger         port.Pinger
	TodoRepo       port.TodoRepository
	TodoService    port.TodoService
	RateLimitStore port.RateLimitStore

	TodoHandler   *handler.TodoHandler
	HealthHandler *handler.HealthHandler

	closers []func() error
}

// NewContainer opens the configured store and ensures its schema. Any error
// here means the service must not start listening.
func NewContainer(ctx context.Context, cfg *config.AppConfig, log *logger.Logger, metrics *telemetry.AppMetrics) (*Container, error) {
	c := &Container{}

	probe := telemetry.NewNoOpProbe()
	if metrics != nil {
		probe = telemetry.NewOTELProbe(log.Logger, metrics)
	}

	if err := c.openStore(ctx, cfg, probe, metrics); err != nil {
		c.Close()
		return nil, err
	}

	if err := c.openRateLimitStore(ctx, cfg, log); err != nil {
		c.Close()
		return nil, err
	}

	c.TodoService = service.NewTodoService(c.TodoRepo, probe)
	c.TodoHandler = handler.NewTodoHandler(c.TodoService, view.NewTemplRenderer(), validation.NewStructValidator(), log)
	c.HealthHandler = handler.NewHealthHandler(c.Pinger, log)

	return c, nil
}

func (c *Container) openStore(ctx context.Context, cfg *config.AppConfig, probe port.Telemetry, metrics *telemetry.AppMetrics) error {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		db, err := postgres.NewDB(ctx, postgres.Config{
			URL:      cfg.DatabaseURL,
			MaxConns: int32(cfg.DBMaxOpenConns),
		})
		if err != nil {
			return err
		}

		c.closers = append(c.closers, func() error {
			db.Close()
			return nil
		})

		if err := db.EnsureSchema(); err != nil {
			return err
		}

		c.Pinger = db
		c.TodoRepo = pgrepository.NewTodoRepository(db, probe)

	case config.DriverSQLite:
		db, err := sqlite.NewDB(ctx, sqlite.Config{
			Path:          cfg.DatabasePath,
			MaxOpenConns:  cfg.DBMaxOpenConns,
			MaxIdleConns:  cfg.DBMaxIdleConns,
			LogStatements: cfg.SQLLogStatement,
		})
		if err != nil {
			return err
		}

		c.closers = append(c.closers, db.Close)

		if err := sqlite.EnsureSchema(db.DB); err != nil {
			return err
		}

		if metrics != nil {
			if err := metrics.RegisterDBStats(db.DB, "todo"); err != nil {
				return fmt.Errorf("register pool metrics: %w", err)
			}
		}

		c.Pinger = db
		c.TodoRepo = sqliterepository.NewTodoRepository(db, probe)

	default:
		return fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}

	return nil
}

func (c *Container) openRateLimitStore(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) error {
	if !cfg.RateLimitEnabled {
		return nil
	}

	if cfg.RedisURL == "" {
		c.RateLimitStore = memory.NewRateLimitStore()
	} else {
		store, err := redis.NewRateLimitStore(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect rate limit store: %w", err)
		}

		c.RateLimitStore = store
	}

	c.closers = append(c.closers, c.RateLimitStore.Close)

	return nil
}

func (c *Container) Close() error {
	var errs []error

	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}

	c.closers = nil

	return errors.Join(errs...)
}
