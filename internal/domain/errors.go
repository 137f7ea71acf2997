package domain

import (
	"errors"
	"fmt"
)

// Common domain errors that can occur while building the policy report.
var (
	// ErrMalformedRecord indicates a paragraph record that lacks its domain or
	// leftright predictions, or whose leftright does not have two elements.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrZeroWeightSum indicates a weight sequence (or a party denominator)
	// that sums to zero, leaving mean, standard deviation and percent undefined.
	ErrZeroWeightSum = errors.New("zero weight sum")

	// ErrEmptyValueSet indicates a statistic requested over no values.
	ErrEmptyValueSet = errors.New("empty value set")

	// ErrLengthMismatch indicates parallel sequences of different lengths.
	ErrLengthMismatch = errors.New("length mismatch")

	// ErrKeyNotFound indicates that a requested StateKey does not exist.
	ErrKeyNotFound = errors.New("key not found")

	// ErrInvalidConfiguration indicates that configuration is invalid or incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// RecordError locates a malformed paragraph within the corpus.
type RecordError struct {
	// Party is the party whose paragraph list contains the record.
	Party string

	// Index is the zero-based position of the paragraph in that list.
	Index int

	// Reason describes what is wrong with the record.
	Reason error
}

// Error implements the error interface for RecordError.
func (e *RecordError) Error() string {
	return fmt.Sprintf("malformed record: party=%s, paragraph=%d: %v", e.Party, e.Index, e.Reason)
}

// Unwrap exposes both the ErrMalformedRecord sentinel and the reason.
func (e *RecordError) Unwrap() []error { return []error{ErrMalformedRecord, e.Reason} }

// NewRecordError creates a RecordError for the paragraph at index of party.
func NewRecordError(party string, index int, reason error) *RecordError {
	return &RecordError{Party: party, Index: index, Reason: reason}
}

// StatError attaches the (party, policy) pair and the measure being computed
// to a failure from the statistics primitives.
type StatError struct {
	Party   string
	Policy  string
	Measure string
	Err     error
}

// Error implements the error interface for StatError.
func (e *StatError) Error() string {
	return fmt.Sprintf("statistic %s failed: party=%s, policy=%s: %v", e.Measure, e.Party, e.Policy, e.Err)
}

// Unwrap returns the underlying error.
func (e *StatError) Unwrap() error { return e.Err }

// NewStatError creates a StatError.
func NewStatError(party, policy, measure string, err error) *StatError {
	return &StatError{Party: party, Policy: policy, Measure: measure, Err: err}
}

// StateError represents an error that occurred during State operations.
// It provides context about which key and operation caused the error.
type StateError struct {
	// Key is the name of the State key involved in the failed operation.
	Key string

	// Operation describes what operation was being performed when the error occurred.
	Operation string

	// Err is the underlying error that caused the operation to fail.
	Err error
}

// Error implements the error interface for StateError.
func (e *StateError) Error() string {
	return fmt.Sprintf("state error: operation=%s, key=%s, err=%v", e.Operation, e.Key, e.Err)
}

// Unwrap returns the underlying error, supporting Go 1.13+ error unwrapping.
func (e *StateError) Unwrap() error { return e.Err }

// NewStateError creates a new StateError with the given details.
func NewStateError[T any](key Key[T], operation string, err error) *StateError {
	return &StateError{
		Key:       key.Name(),
		Operation: operation,
		Err:       err,
	}
}

// ValidationError represents an error that occurred during validation.
// It can contain multiple validation failures.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// Unwrap lets callers match validation failures with ErrInvalidConfiguration.
func (e *ValidationError) Unwrap() error { return ErrInvalidConfiguration }

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}
