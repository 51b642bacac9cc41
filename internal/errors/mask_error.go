// Package errors provides standardized error types for mask operations.
// This package defines MaskError for consistent error handling across
// all public APIs, with operation context and error wrapping support.
package errors

import (
	stderrors "errors"
	"fmt"
)

// MaskError represents standardized errors across all mask operations
type MaskError struct {
	Op      string // Operation name (e.g., "Evaluate", "Update", "Resolve")
	Name    string // Column or binding name if applicable
	Message string // Human-readable error description
	Cause   error  // Underlying error cause
}

// Error implements the error interface
func (e *MaskError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s operation failed on column '%s': %s", e.Op, e.Name, e.Message)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying cause for error wrapping support
func (e *MaskError) Unwrap() error {
	return e.Cause
}

// Is implements error equality checking for errors.Is()
func (e *MaskError) Is(target error) bool {
	if me, ok := target.(*MaskError); ok {
		return e.Op == me.Op && e.Name == me.Name && e.Message == me.Message
	}
	return false
}

// Sentinel causes for the error taxonomy. Constructors wrap these so
// callers can classify with errors.Is without string matching.
var (
	// ErrResolverReleased reports a resolution attempt through a proxy
	// whose bindings have been released. Absorbed by the binding layer
	// into an absent value; never fatal on its own.
	ErrResolverReleased = stderrors.New("column resolver out of scope")

	// ErrUnknownColumn reports a name the provider never knew about.
	ErrUnknownColumn = stderrors.New("column does not exist")

	// ErrAbsentValue reports a binding whose producer could not supply
	// a value (released resolver). Distinguishable from ErrUnknownColumn.
	ErrAbsentValue = stderrors.New("column value is absent")

	// ErrStaleUpdate reports a subset request for a partition the
	// provider was never retargeted to. Always a caller bug.
	ErrStaleUpdate = stderrors.New("partition changed without update")
)

// NewUnknownColumnError creates an error for lookups of non-existent columns
func NewUnknownColumnError(op, name string) *MaskError {
	return &MaskError{
		Op:      op,
		Name:    name,
		Message: "column does not exist",
		Cause:   ErrUnknownColumn,
	}
}

// NewAbsentValueError creates an error for bindings without a value
func NewAbsentValueError(op, name string) *MaskError {
	return &MaskError{
		Op:      op,
		Name:    name,
		Message: "column value is absent",
		Cause:   ErrAbsentValue,
	}
}

// NewStaleUpdateError creates an error for subset access outside the
// current partition
func NewStaleUpdateError(op, message string) *MaskError {
	return &MaskError{
		Op:      op,
		Message: message,
		Cause:   ErrStaleUpdate,
	}
}

// NewInvalidInputError creates an error for invalid operation inputs
func NewInvalidInputError(op, message string) *MaskError {
	return &MaskError{
		Op:      op,
		Message: message,
	}
}

// NewUnsupportedTypeError creates an error for unsupported data types
func NewUnsupportedTypeError(op, typeName string) *MaskError {
	return &MaskError{
		Op:      op,
		Message: fmt.Sprintf("unsupported type: %s", typeName),
	}
}

// NewInternalError creates an error for internal operation failures
func NewInternalError(op string, cause error) *MaskError {
	return &MaskError{
		Op:      op,
		Message: "internal error occurred",
		Cause:   cause,
	}
}

// IsUnknownColumn reports whether err classifies as an unknown-column failure.
func IsUnknownColumn(err error) bool {
	return stderrors.Is(err, ErrUnknownColumn)
}

// IsAbsent reports whether err classifies as an absent-value failure.
func IsAbsent(err error) bool {
	return stderrors.Is(err, ErrAbsentValue)
}

// IsStale reports whether err classifies as a stale-update contract violation.
func IsStale(err error) bool {
	return stderrors.Is(err, ErrStaleUpdate)
}
