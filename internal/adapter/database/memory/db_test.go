package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	. "github.com/onsi/gomega"

	"todolist/internal/adapter/database/memory"
	"todolist/internal/core/domain"
)

func TestTodoRepository_EmptyList(t *testing.T) {
	RegisterTestingT(t)

	entries, err := memory.NewTodoRepository().List(context.Background())

	Expect(err).To(BeNil())
	Expect(entries).ToNot(BeNil())
	Expect(entries).To(BeEmpty())
}

func TestTodoRepository_IdsAreNeverReused(t *testing.T) {
	RegisterTestingT(t)

	ctx := context.Background()
	repo := memory.NewTodoRepository()

	Expect(repo.Insert(ctx, "first")).To(Succeed())
	Expect(repo.Delete(ctx, 1)).To(Succeed())
	Expect(repo.Insert(ctx, "second")).To(Succeed())

	entries, err := repo.List(ctx)

	Expect(err).To(BeNil())
	Expect(entries).To(Equal([]domain.TodoEntry{{ID: 2, Text: "second"}}))
}

func TestTodoRepository_ConcurrentInserts(t *testing.T) {
	RegisterTestingT(t)

	ctx := context.Background()
	repo := memory.NewTodoRepository()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = repo.Insert(ctx, fmt.Sprintf("entry %d", i))
		}(i)
	}
	wg.Wait()

	entries, _ := repo.List(ctx)
	Expect(entries).To(HaveLen(50))
}

func TestTodoRepository_CanceledContext(t *testing.T) {
	RegisterTestingT(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := memory.NewTodoRepository().Insert(ctx, "x")

	Expect(err).To(MatchError(domain.ErrPool))
}
