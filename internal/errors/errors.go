package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents an intake error code.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"   // 400
	ErrUnknownField     ErrorCode = "UNKNOWN_FIELD"     // 400
	ErrInvalidValue     ErrorCode = "INVALID_VALUE"     // 400
	ErrNotFound         ErrorCode = "NOT_FOUND"         // 404
	ErrNoActiveRecord   ErrorCode = "NO_ACTIVE_RECORD"  // 409
	ErrIncompleteRecord ErrorCode = "INCOMPLETE_RECORD" // 409
	ErrPersistence      ErrorCode = "PERSISTENCE"       // 503
	ErrInternal         ErrorCode = "INTERNAL"          // 500
)

// IntakeError represents a structured error with code, status, and details.
type IntakeError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	cause   error
}

// Error implements the error interface.
func (e *IntakeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *IntakeError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *IntakeError {
	return &IntakeError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewUnknownField creates a 400 error for a field name the schema does not declare.
func NewUnknownField(schema, field string) *IntakeError {
	return &IntakeError{
		Code:    ErrUnknownField,
		Status:  400,
		Message: fmt.Sprintf("%q is not something I track for this %s", field, schema),
		Details: map[string]any{"schema": schema, "field": field},
	}
}

// NewInvalidValue creates a 400 error for a value outside a field's domain.
// choices may be empty when the field has no enumerated domain.
func NewInvalidValue(field, value string, choices []string) *IntakeError {
	msg := fmt.Sprintf("I didn't catch a valid %s from %q", field, value)
	if len(choices) > 0 {
		msg += ". Options are: " + strings.Join(choices, ", ")
	}
	return &IntakeError{
		Code:    ErrInvalidValue,
		Status:  400,
		Message: msg,
		Details: map[string]any{"field": field, "value": value, "choices": choices},
	}
}

// NewNotFound creates a 404 error for an unknown identifier lookup.
func NewNotFound(kind, identifier string) *IntakeError {
	return &IntakeError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("could not find %s with ID: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewNoActiveRecord creates a 409 error when an operation needs context the
// conversation has not established yet.
func NewNoActiveRecord(msg string) *IntakeError {
	return &IntakeError{
		Code:    ErrNoActiveRecord,
		Status:  409,
		Message: msg,
	}
}

// NewIncompleteRecord creates a 409 error when finalize is called before
// every required field is set.
func NewIncompleteRecord(missing []string) *IntakeError {
	return &IntakeError{
		Code:    ErrIncompleteRecord,
		Status:  409,
		Message: fmt.Sprintf("still missing: %s", strings.Join(missing, ", ")),
		Details: map[string]any{"missing_fields": missing},
	}
}

// NewPersistence creates a 503 error wrapping a journal failure.
func NewPersistence(backend string, err error) *IntakeError {
	msg := "persistence failed"
	if err != nil {
		msg = err.Error()
	}
	return &IntakeError{
		Code:    ErrPersistence,
		Status:  503,
		Message: msg,
		Details: map[string]any{"backend": backend},
		cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *IntakeError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &IntakeError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// Is checks if an error is an IntakeError with the given code.
func Is(err error, code ErrorCode) bool {
	var iErr *IntakeError
	if stderrors.As(err, &iErr) {
		return iErr.Code == code
	}
	return false
}
