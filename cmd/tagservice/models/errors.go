package models

import "errors"

var (
	// ErrNotFound is returned when a referenced tag does not exist
	ErrNotFound = errors.New("tag not found")

	// ErrForbidden is returned when an operation violates a lifecycle precondition
	ErrForbidden = errors.New("operation forbidden")

	// ErrInvalidQuery is returned when a search expression does not compile
	ErrInvalidQuery = errors.New("invalid query")
)
