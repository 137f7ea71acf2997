package ports

import (
	"errors"
	"fmt"
)

// Common boundary errors that can occur while reading input or writing
// output.
var (
	// ErrInputNotFound indicates that the input source does not exist.
	ErrInputNotFound = errors.New("input not found")

	// ErrInvalidInput indicates that the input could not be decoded into
	// a corpus.
	ErrInvalidInput = errors.New("invalid input")

	// ErrOutputFailed indicates that the report could not be persisted.
	ErrOutputFailed = errors.New("output failed")

	// ErrConfigNotFound indicates that required configuration is missing.
	ErrConfigNotFound = errors.New("configuration not found")
)

// IOError represents a failure at the file boundary.
// It includes the path and the operation that failed.
type IOError struct {
	// Path is the file path involved in the failed operation.
	Path string

	// Operation is the name of the operation that failed, e.g. "read".
	Operation string

	// Err is the underlying error that occurred.
	Err error
}

// Error implements the error interface for IOError.
func (e *IOError) Error() string {
	return fmt.Sprintf("io error: operation=%s, path=%s, err=%v", e.Operation, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError.
func NewIOError(path, operation string, err error) *IOError {
	return &IOError{Path: path, Operation: operation, Err: err}
}
