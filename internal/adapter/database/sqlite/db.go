package sqlite

import (
	"context"
	"database/sql"
	"net/url"
	"os"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	sqldblogger "github.com/simukti/sqldb-logger"
	"github.com/simukti/sqldb-logger/logadapter/zerologadapter"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"

	"todolist/internal/core/domain"
)

type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// LogStatements logs every statement through zerolog.
	LogStatements bool
}

// DB is the bounded connection pool for the todo database file.
type DB struct {
	*sql.DB
	QueryBuilder *squirrel.StatementBuilderType
}

// DSN enables WAL and a busy timeout so concurrent writers wait on each other
// inside SQLite instead of failing with SQLITE_BUSY. The path is percent-encoded
// because SQLite reads the DSN as a URI.
func DSN(path string) string {
	escaped := (&url.URL{Path: path}).EscapedPath()
	return "file:" + escaped + "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"
}

func NewDB(ctx context.Context, config Config) (*DB, error) {
	dsn := DSN(config.Path)

	sqlDB, err := otelsql.Open("sqlite3", dsn,
		otelsql.WithDBSystem("sqlite"),
		otelsql.WithDBName("todo"),
	)

	if err != nil {
		return nil, domain.PoolError(err)
	}

	db := sqlDB

	if config.LogStatements {
		logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
		db = sqldblogger.OpenDriver(dsn, sqlDB.Driver(), zerologadapter.New(logger))
		sqlDB.Close()
	}

	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}

	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}

	if config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, domain.PoolError(err)
	}

	queryBuilder := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

	return &DB{
		DB:           db,
		QueryBuilder: &queryBuilder,
	}, nil
}

// WithConn borrows one connection from the pool for the duration of fn and
// returns it afterwards. Acquisition blocks while the pool is exhausted until
// a connection frees up or ctx ends.
func (db *DB) WithConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := db.Conn(ctx)

	if err != nil {
		return domain.PoolError(err)
	}

	defer conn.Close()

	return fn(conn)
}
