package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"todolist/internal/adapter/database/postgres"
	"todolist/internal/core/domain"
	"todolist/internal/core/port"
	tel "todolist/internal/core/telemetry"
)

const todoTable = "todo"

type TodoRepository struct {
	db        *postgres.DB
	telemetry port.Telemetry
}

func NewTodoRepository(db *postgres.DB, telemetry port.Telemetry) port.TodoRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &TodoRepository{
		db:        db,
		telemetry: telemetry,
	}
}

func (tr *TodoRepository) List(ctx context.Context) ([]domain.TodoEntry, error) {
	ctx, span := tr.telemetry.StartRepositorySpan(ctx, "List", "todo", map[string]interface{}{
		"db.system":    "postgresql",
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

	var entries []domain.TodoEntry

	err = tr.db.WithConn(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return domain.QueryError("list", err)
		}

		entries, err = pgx.CollectRows(rows, pgx.RowToStructByName[domain.TodoEntry])
		if err != nil {
			return domain.QueryError("list", err)
		}

		return nil
	})

	if err != nil {
		tr.finish(ctx, span, "List", startTime, err)
		return nil, err
	}

	if entries == nil {
		entries = []domain.TodoEntry{}
	}

	span.SetAttributes(map[string]interface{}{"db.rows_returned": len(entries)})
	tr.finish(ctx, span, "List", startTime, nil)

	return entries, nil
}

func (tr *TodoRepository) Insert(ctx context.Context, text string) error {
	ctx, span := tr.telemetry.StartRepositorySpan(ctx, "Insert", "todo", map[string]interface{}{
		"db.system":    "postgresql",
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

	err = tr.db.WithConn(ctx, func(conn *pgxpool.Conn) error {
		if _, err := conn.Exec(ctx, query, args...); err != nil {
			return domain.QueryError("insert", err)
		}

		return nil
	})

	tr.finish(ctx, span, "Insert", startTime, err)

	return err
}

func (tr *TodoRepository) Delete(ctx context.Context, id int64) error {
	ctx, span := tr.telemetry.StartRepositorySpan(ctx, "Delete", "todo", map[string]interface{}{
		"db.system":    "postgresql",
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

	err = tr.db.WithConn(ctx, func(conn *pgxpool.Conn) error {
		tag, err := conn.Exec(ctx, query, args...)
		if err != nil {
			return domain.QueryError("delete", err)
		}

		span.SetAttributes(map[string]interface{}{"db.rows_affected": tag.RowsAffected()})

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
