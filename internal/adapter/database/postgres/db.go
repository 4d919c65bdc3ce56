package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"todolist/internal/core/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Config struct {
	URL      string
	MaxConns int32
}

type DB struct {
	*pgxpool.Pool
	QueryBuilder *squirrel.StatementBuilderType
	url          string
}

func NewDB(ctx context.Context, config Config) (*DB, error) {
	if config.URL == "" {
		return nil, domain.PoolError(errors.New("DATABASE_URL is not set"))
	}

	poolConfig, err := pgxpool.ParseConfig(config.URL)

	if err != nil {
		return nil, domain.PoolError(err)
	}

	if config.MaxConns > 0 {
		poolConfig.MaxConns = config.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)

	if err != nil {
		return nil, domain.PoolError(err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, domain.PoolError(err)
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	return &DB{
		Pool:         pool,
		QueryBuilder: &psql,
		url:          config.URL,
	}, nil
}

// WithConn acquires one pooled connection for fn and releases it afterwards.
func (db *DB) WithConn(ctx context.Context, fn func(conn *pgxpool.Conn) error) error {
	conn, err := db.Acquire(ctx)

	if err != nil {
		return domain.PoolError(err)
	}

	defer conn.Release()

	return fn(conn)
}

func (db *DB) PingContext(ctx context.Context) error {
	return db.Ping(ctx)
}

// EnsureSchema creates the todo table if it is absent, on a short-lived
// database/sql handle so the pgx pool is untouched.
func (db *DB) EnsureSchema() error {
	sqlDB, err := sql.Open("pgx", db.url)

	if err != nil {
		return domain.SchemaError(err)
	}

	driver, err := pgxmigrate.WithInstance(sqlDB, &pgxmigrate.Config{})

	if err != nil {
		sqlDB.Close()
		return domain.SchemaError(err)
	}

	source, err := iofs.New(migrationsFS, "migrations")

	if err != nil {
		sqlDB.Close()
		return domain.SchemaError(err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "pgx5", driver)

	if err != nil {
		sqlDB.Close()
		return domain.SchemaError(err)
	}

	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return domain.SchemaError(err)
	}

	return nil
}
