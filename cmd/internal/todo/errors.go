package todo

import "errors"

// Sentinel error kinds (stable for errors.Is and for mapping to API status codes).
var (
	// ErrNotFound covers both missing ids and ids owned by someone else.
	ErrNotFound = errors.New("todo_not_found")

	ErrInvalidInput = errors.New("invalid_input")

	// ErrNoFields is returned by partial updates that carry no fields at all.
	ErrNoFields = errors.New("no_fields_provided")
)
