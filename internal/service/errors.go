package service

import (
	"errors"
	"fmt"
)

// Error taxonomy of the core operations. The HTTP layer maps these to status
// codes; everything not classified here surfaces as a StorageError.

// ValidationError reports missing or malformed required input. Raised before
// any write, so a validation failure never leaves partial state behind.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an operation targeting a row that does not exist.
type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// ConflictError reports a state conflict: a duplicate tag name, or a tag
// deletion blocked by existing task references. The message is safe to echo
// to the caller.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// StorageError wraps any failure surfaced by the underlying engine.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}
