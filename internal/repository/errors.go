package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a conditional write finds the stored row
	// changed since it was read
	ErrConflict = errors.New("conflict: entity was modified concurrently")
)
