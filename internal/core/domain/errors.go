package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrPool is returned when a pooled connection cannot be obtained.
	ErrPool = errors.New("connection pool unavailable")

	// ErrQuery is returned when the store rejects or fails a statement.
	ErrQuery = errors.New("query failed")

	// ErrSchema is returned when the todo table cannot be ensured at startup.
	ErrSchema = errors.New("schema initialization failed")

	// ErrRender is returned when the list view cannot be rendered.
	ErrRender = errors.New("render failed")

	// ErrClientInput is returned when a required form field is missing or malformed.
	ErrClientInput = errors.New("invalid input")
)

func PoolError(err error) error {
	return fmt.Errorf("%w: %w", ErrPool, err)
}

func QueryError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrQuery, op, err)
}

func SchemaError(err error) error {
	return fmt.Errorf("%w: %w", ErrSchema, err)
}

func RenderError(err error) error {
	return fmt.Errorf("%w: %w", ErrRender, err)
}

func ClientInputError(err error) error {
	return fmt.Errorf("%w: %w", ErrClientInput, err)
}
