package storage

import "errors"

var (
	// ErrNotFound is returned when a generation record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrQuotaExceeded is returned by ReserveGeneration when the user's
	// successful and in-flight generations already fill the allowance.
	ErrQuotaExceeded = errors.New("generation allowance exhausted")
)
