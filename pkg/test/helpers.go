package test

import (
	"context"
	"path/filepath"
	"testing"

	"todolist/internal/adapter/database/sqlite"
)

// InitTestDB opens a pool on a fresh database file in a temporary directory with
// the todo table in place. The pool is closed when the test ends.
func InitTestDB(t testing.TB) *sqlite.DB {
	t.Helper()

	db, err := sqlite.NewDB(context.Background(), sqlite.Config{
		Path:         filepath.Join(t.TempDir(), "todo_test.db"),
		MaxOpenConns: 10,
		MaxIdleConns: 5,
	})

	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	if err := sqlite.EnsureSchema(db.DB); err != nil {
		t.Fatalf("Failed to ensure schema: %v", err)
	}

	return db
}

// CountRows returns the number of rows in table.
func CountRows(t testing.TB, db *sqlite.DB, table string) int {
	t.Helper()

	var count int

	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
		t.Fatalf("Failed to count rows in %s: %v", table, err)
	}

	return count
}
