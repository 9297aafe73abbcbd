package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by repositories for unknown article ids.
	ErrNotFound = errors.New("article not found")
	// ErrInvalidStatus is returned for status values outside pending/approved/rejected.
	ErrInvalidStatus = errors.New("invalid status")
)

// ValidationError rejects a submission before any side effect.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// StorageError wraps a persistence failure; it is fatal to a submission.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
