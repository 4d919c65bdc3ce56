package view

//go:generate templ generate

import (
	"bytes"
	"context"

	"todolist/internal/core/domain"
	"todolist/internal/core/port"
)

// TemplRenderer renders the list page into a buffer, so a failed render
// never reaches the client as a partial body.
type TemplRenderer struct{}

func NewTemplRenderer() port.Renderer {
	return &TemplRenderer{}
}

func (r *TemplRenderer) RenderList(ctx context.Context, entries []domain.TodoEntry) ([]byte, error) {
	var buf bytes.Buffer

	if err := ListPage(entries).Render(ctx, &buf); err != nil {
		return nil, domain.RenderError(err)
	}

	return buf.Bytes(), nil
}
