package store

import "errors"

var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")

	// ErrStorageCorrupt is returned when the durable file is missing or cannot be parsed.
	// It is fatal to Open.
	ErrStorageCorrupt = errors.New("storage corrupt")
	// ErrStorageWrite is returned when a persist fails. The in-memory change is kept.
	ErrStorageWrite = errors.New("storage write failed")
)
