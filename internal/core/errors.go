package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound means no record exists for the requested id.
var ErrNotFound = errors.New("transaction not found")

// FieldError is a single field-scoped validation failure.
type FieldError struct {
	Field    string   `json:"field"`
	Value    any      `json:"value"`
	Messages []string `json:"messages"`
}

// ValidationError carries every field failure found for one record.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+strings.Join(fe.Messages, "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// StorageError reports a failure of the persistence layer. Callers may retry.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// InternalError wraps an unexpected fault. Its cause is for logs only.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error: %v", e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

// NewStorageError wraps err unless it already is a StorageError or ErrNotFound.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
