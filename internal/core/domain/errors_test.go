package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"todolist/internal/core/domain"
)

func TestErrorKindsWrapCause(t *testing.T) {
	cause := errors.New("disk I/O error")

	cases := []struct {
		name string
		err  error
		kind error
	}{
		{"pool", domain.PoolError(cause), domain.ErrPool},
		{"query", domain.QueryError("insert", cause), domain.ErrQuery},
		{"schema", domain.SchemaError(cause), domain.ErrSchema},
		{"render", domain.RenderError(cause), domain.ErrRender},
		{"client input", domain.ClientInputError(cause), domain.ErrClientInput},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.err, tc.kind)
			assert.ErrorIs(t, tc.err, cause)
			assert.Contains(t, tc.err.Error(), "disk I/O error")
		})
	}
}

func TestQueryErrorNamesOperation(t *testing.T) {
	err := domain.QueryError("delete", errors.New("locked"))

	assert.Equal(t, "query failed: delete: locked", err.Error())
	assert.False(t, errors.Is(err, domain.ErrPool))
}
