package sqlite

import (
	"database/sql"
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"todolist/internal/core/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// EnsureSchema creates the todo table if it is absent. Safe to call any number of times.
func EnsureSchema(db *sql.DB) error {
	source, err := iofs.New(migrationsFS, "migrations")

	if err != nil {
		return domain.SchemaError(err)
	}

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})

	if err != nil {
		return domain.SchemaError(err)
	}

	// m.Close is not called: it would close the shared pool.
	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)

	if err != nil {
		return domain.SchemaError(err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return domain.SchemaError(err)
	}

	return nil
}
