package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error kinds. Match them with errors.Is against any *AppError.
var (
	ErrValidation = stderrors.New("validation failed")
	ErrNotFound   = stderrors.New("not found")
	ErrStore      = stderrors.New("store failure")
	ErrInternal   = stderrors.New("internal failure")
)

// AppError represents an application error
type AppError struct {
	Message    string
	StatusCode int
	// Field names the offending input field for validation errors.
	Field string
	Err   error
	kind  error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the kind sentinel of this error.
func (e *AppError) Is(target error) bool {
	return e.kind != nil && target == e.kind
}

// Kind returns the sentinel describing this error's category.
func (e *AppError) Kind() error {
	if e.kind == nil {
		return ErrInternal
	}
	return e.kind
}

// NewValidationError creates a validation error for a single field
func NewValidationError(field, message string) *AppError {
	return &AppError{
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Field:      field,
		kind:       ErrValidation,
	}
}

// NewNotFoundError creates a not found error for a car id
func NewNotFoundError(id string) *AppError {
	return &AppError{
		Message:    fmt.Sprintf("Car with ID '%s' not found", id),
		StatusCode: http.StatusNotFound,
		kind:       ErrNotFound,
	}
}

// NewStoreError creates a database error
func NewStoreError(err error) *AppError {
	return &AppError{
		Message:    "Database error",
		StatusCode: http.StatusInternalServerError,
		Err:        err,
		kind:       ErrStore,
	}
}

// NewInternalError creates an internal server error
func NewInternalError(err error) *AppError {
	return &AppError{
		Message:    "Internal server error",
		StatusCode: http.StatusInternalServerError,
		Err:        err,
		kind:       ErrInternal,
	}
}

// NewJSONError creates a JSON parsing error
func NewJSONError(err error) *AppError {
	return &AppError{
		Message:    "Invalid JSON",
		StatusCode: http.StatusBadRequest,
		Err:        err,
		kind:       ErrValidation,
	}
}

// FromError returns err as an *AppError, wrapping anything unknown as internal.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError(err)
}
