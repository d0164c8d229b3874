package domain

import "errors"

var (
	// ErrNotFound is returned when a row lookup by id matches nothing.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateMessage is returned when an insert collides with the
	// unique external_id constraint. The pipeline treats it as a normal
	// skip, not a failure.
	ErrDuplicateMessage = errors.New("duplicate message")
)
