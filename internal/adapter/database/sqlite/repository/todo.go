package repository

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"todolist/internal/adapter/database/sqlite"
	"todolist/internal/core/domain"
	"todolist/internal/core/port"
	tel "todolist/internal/core/telemetry"
)

const todoTable = "todo"

type TodoRepository struct {
	db        *sqlite.DB
	scanner   *sqlite.Scanner
	telemetry port.Telemetry
}

func NewTodoRepository(db *sqlite.DB, telemetry port.Telemetry) port.TodoRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &TodoRepository{
		db:        db,
		scanner:   sqlite.NewScanner(),
		telemetry: telemetry,
	}
}

func (tr *TodoRepository) List(ctx context.Context) ([]domain.TodoEntry, error) {
	ctx, span := tr.telemetry.StartRepositorySpan(ctx, "List", "todo", map[string]interface{}{
		"db.system":    "sqlite",
		"db.table":     todoTable,
		"db.operation": "SELECT",
	})
	defer span.End()

	startTime := time.Now()

	query, args, err := tr.db.QueryBuilder.Select("id", "text").
		From(todoTable).
		OrderBy("id").
		ToSql()

	if err != nil {
		err = domain.QueryError("list", err)
		tr.finish(ctx, span, "List", startTime, err)
		return nil, err
	}

	tr.telemetry.RecordRepositoryQuery(ctx, "List", "todo", query, args)

	entries := make([]domain.TodoEntry, 0)

	err = tr.db.WithConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return domain.QueryError("list", err)
		}
		defer rows.Close()

		if err := tr.scanner.ScanRowsToSlice(rows, &entries); err != nil {
			return domain.QueryError("list", err)
		}

		return nil
	})

	if err != nil {
		tr.finish(ctx, span, "List", startTime, err)
		return nil, err
	}

	span.SetAttributes(map[string]interface{}{"db.rows_returned": len(entries)})
	tr.finish(ctx, span, "List", startTime, nil)

	return entries, nil
}

func (tr *TodoRepository) Insert(ctx context.Context, text string) error {
	ctx, span := tr.telemetry.StartRepositorySpan(ctx, "Insert", "todo", map[string]interface{}{
		"db.system":    "sqlite",
		"db.table":     todoTable,
		"db.operation": "INSERT",
	})
	defer span.End()

	startTime := time.Now()

	query, args, err := tr.db.QueryBuilder.Insert(todoTable).
		Columns("text").
		Values(text).
		ToSql()

	if err != nil {
		err = domain.QueryError("insert", err)
		tr.finish(ctx, span, "Insert", startTime, err)
		return err
	}

	tr.telemetry.RecordRepositoryQuery(ctx, "Insert", "todo", query, args)

	err = tr.db.WithConn(ctx, func(conn *sql.Conn) error {
		result, err := conn.ExecContext(ctx, query, args...)
		if err != nil {
			return domain.QueryError("insert", err)
		}

		if id, err := result.LastInsertId(); err == nil {
			span.SetAttributes(map[string]interface{}{"todo.id": id})
		}

		return nil
	})

	tr.finish(ctx, span, "Insert", startTime, err)

	return err
}

// Delete removes the entry with the given id. Deleting an id that does not exist
// affects zero rows and is not an error.
func (tr *TodoRepository) Delete(ctx context.Context, id int64) error {
	ctx, span := tr.telemetry.StartRepositorySpan(ctx, "Delete", "todo", map[string]interface{}{
		"db.system":    "sqlite",
		"db.table":     todoTable,
		"db.operation": "DELETE",
		"todo.id":      id,
	})
	defer span.End()

	startTime := time.Now()

	query, args, err := tr.db.QueryBuilder.Delete(todoTable).
		Where(sq.Eq{"id": id}).
		ToSql()

	if err != nil {
		err = domain.QueryError("delete", err)
		tr.finish(ctx, span, "Delete", startTime, err)
		return err
	}

	tr.telemetry.RecordRepositoryQuery(ctx, "Delete", "todo", query, args)

	err = tr.db.WithConn(ctx, func(conn *sql.Conn) error {
		result, err := conn.ExecContext(ctx, query, args...)
		if err != nil {
			return domain.QueryError("delete", err)
		}

		if rowsAffected, err := result.RowsAffected(); err == nil {
			span.SetAttributes(map[string]interface{}{"db.rows_affected": rowsAffected})
		}

		return nil
	})

	tr.finish(ctx, span, "Delete", startTime, err)

	return err
}

func (tr *TodoRepository) finish(ctx context.Context, span port.Span, operation string, startTime time.Time, err error) {
	if err != nil {
		span.SetStatus("error", err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus("ok", "")
	}

	tr.telemetry.RecordRepositoryOperation(ctx, operation, "todo", time.Since(startTime), err)
}
