package port

import (
	"context"

	"todolist/internal/core/domain"
)

// TodoRepository translates list/insert/delete into store statements. Every call
// borrows its own pooled connection and releases it before returning.
type TodoRepository interface {
	List(ctx context.Context) ([]domain.TodoEntry, error)
	Insert(ctx context.Context, text string) error
	Delete(ctx context.Context, id int64) error
}

type TodoService interface {
	List(ctx context.Context) ([]domain.TodoEntry, error)
	Add(ctx context.Context, text string) error
	Delete(ctx context.Context, id int64) error
}

// Renderer turns a list of entries into a complete HTML document.
type Renderer interface {
	RenderList(ctx context.Context, entries []domain.TodoEntry) ([]byte, error)
}

// Pinger reports whether the store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}
