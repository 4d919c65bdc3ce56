package service

import (
	"context"
	"strconv"
	"time"

	"todolist/internal/core/domain"
	"todolist/internal/core/port"
	tel "todolist/internal/core/telemetry"
)

const serviceName = "todo"

// TodoService performs exactly one repository call per operation.
type TodoService struct {
	repo      port.TodoRepository
	telemetry port.Telemetry
}

func NewTodoService(repo port.TodoRepository, telemetry port.Telemetry) *TodoService {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &TodoService{
		repo:      repo,
		telemetry: telemetry,
	}
}

func (ts *TodoService) List(ctx context.Context) ([]domain.TodoEntry, error) {
	ctx, span := ts.telemetry.StartServiceSpan(ctx, serviceName, "list", nil)
	defer span.End()

	startTime := time.Now()

	entries, err := ts.repo.List(ctx)
	ts.telemetry.RecordServiceOperation(ctx, serviceName, "list", time.Since(startTime), err)

	if err != nil {
		ts.telemetry.RecordError(ctx, "todo.list", err, nil)
		return nil, err
	}

	span.SetAttributes(map[string]interface{}{"todo.count": len(entries)})

	return entries, nil
}

func (ts *TodoService) Add(ctx context.Context, text string) error {
	ctx, span := ts.telemetry.StartServiceSpan(ctx, serviceName, "add", map[string]interface{}{
		"todo.text_length": len(text),
	})
	defer span.End()

	startTime := time.Now()

	err := ts.repo.Insert(ctx, text)
	ts.telemetry.RecordServiceOperation(ctx, serviceName, "add", time.Since(startTime), err)

	if err != nil {
		ts.telemetry.RecordError(ctx, "todo.add", err, nil)
		return err
	}

	ts.telemetry.RecordBusinessEvent(ctx, "created", "todo", "", map[string]interface{}{
		"text_length": len(text),
	})

	return nil
}

func (ts *TodoService) Delete(ctx context.Context, id int64) error {
	ctx, span := ts.telemetry.StartServiceSpan(ctx, serviceName, "delete", map[string]interface{}{
		"todo.id": id,
	})
	defer span.End()

	startTime := time.Now()

	err := ts.repo.Delete(ctx, id)
	ts.telemetry.RecordServiceOperation(ctx, serviceName, "delete", time.Since(startTime), err)

	if err != nil {
		ts.telemetry.RecordError(ctx, "todo.delete", err, map[string]interface{}{"todo.id": id})
		return err
	}

	ts.telemetry.RecordBusinessEvent(ctx, "deleted", "todo", strconv.FormatInt(id, 10), nil)

	return nil
}
