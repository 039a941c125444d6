// Package apperr defines the error kinds shared across the service's domain
// packages. Handlers translate them to HTTP statuses with errors.Is/As.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound reports that an entity is absent or ineligible. Link lookups
// deliberately return it for unknown, expired and already-used tokens alike so
// an unauthenticated caller cannot probe link state.
var ErrNotFound = errors.New("not found")

// ErrDuplicate reports a uniqueness-constraint violation (e.g. doctor email).
var ErrDuplicate = errors.New("already exists")

// ValidationError reports malformed input and names every offending field.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid input: " + strings.Join(e.Fields, ", ")
}

// Validation builds a ValidationError for the given fields.
func Validation(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// PersistenceError wraps a failure of the underlying store. The core never
// retries; that is the caller's decision.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Persistence wraps err as a PersistenceError for the given operation.
func Persistence(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

// UploadError reports a blob-store failure for a single audio task. A failed
// upload aborts the whole submission; a record is never saved with a missing
// reference treated as success.
type UploadError struct {
	Task string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed for task %q: %v", e.Task, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// Upload wraps err as an UploadError for the given task.
func Upload(task string, err error) *UploadError {
	return &UploadError{Task: task, Err: err}
}
