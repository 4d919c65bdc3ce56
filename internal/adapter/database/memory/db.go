package memory

import (
	"context"
	"sort"
	"sync"

	"todolist/internal/core/domain"
	"todolist/internal/core/port"
)

// TodoRepository keeps entries in process memory. The repository itself assigns
// ids from a counter that never goes backwards, the same way AUTOINCREMENT does.
type TodoRepository struct {
	mu      sync.RWMutex
	entries map[int64]string
	lastID  int64
}

func NewTodoRepository() *TodoRepository {
	return &TodoRepository{
		entries: make(map[int64]string),
	}
}

var _ port.TodoRepository = (*TodoRepository)(nil)

func (r *TodoRepository) List(ctx context.Context) ([]domain.TodoEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.PoolError(err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]domain.TodoEntry, 0, len(r.entries))
	for id, text := range r.entries {
		entries = append(entries, domain.TodoEntry{ID: id, Text: text})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	return entries, nil
}

func (r *TodoRepository) Insert(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return domain.PoolError(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID++
	r.entries[r.lastID] = text

	return nil
}

func (r *TodoRepository) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return domain.PoolError(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, id)

	return nil
}
