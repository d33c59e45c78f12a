package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the HTTP boundary.
type Kind string

// Error kinds
const (
	// Client input errors
	KindInvalidParameter Kind = "INVALID_PARAMETER"
	KindValidationFailed Kind = "VALIDATION_FAILED"
	KindConflict         Kind = "CONFLICT"

	// Resource errors
	KindNotFound Kind = "NOT_FOUND"

	// Store errors
	KindStoreFailure Kind = "STORE_FAILURE"
)

// APIError is a typed error carried from the core to the handlers.
type APIError struct {
	Kind    Kind
	Message string
	// Param names the offending query parameter for KindInvalidParameter.
	Param string
	Err   error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Err != nil && e.Kind == KindStoreFailure {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is matches any *APIError of the same kind, so errors.Is(err, ErrNotFound) works
// regardless of message.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	return t.Param == "" || t.Param == e.Param
}

// Sentinels for errors.Is checks
var (
	ErrInvalidParameter = &APIError{Kind: KindInvalidParameter}
	ErrValidationFailed = &APIError{Kind: KindValidationFailed}
	ErrConflict         = &APIError{Kind: KindConflict}
	ErrNotFound         = &APIError{Kind: KindNotFound}
	ErrStoreFailure     = &APIError{Kind: KindStoreFailure}
)

// InvalidParameter reports a malformed query parameter.
func InvalidParameter(param string) *APIError {
	message := fmt.Sprintf("Invalid '%s'.", param)
	switch param {
	case "where", "sort", "select":
		message = fmt.Sprintf("Invalid JSON for '%s'.", param)
	}
	return &APIError{Kind: KindInvalidParameter, Message: message, Param: param}
}

// ValidationFailed reports a missing or malformed body field.
func ValidationFailed(message string) *APIError {
	return &APIError{Kind: KindValidationFailed, Message: message}
}

// Conflict reports a uniqueness violation.
func Conflict(message string) *APIError {
	return &APIError{Kind: KindConflict, Message: message}
}

// NotFound reports a missing record.
func NotFound(message string) *APIError {
	if message == "" {
		message = "Resource not found"
	}
	return &APIError{Kind: KindNotFound, Message: message}
}

// StoreFailure wraps an unexpected store error.
func StoreFailure(message string, err error) *APIError {
	return &APIError{Kind: KindStoreFailure, Message: message, Err: err}
}

// KindOf returns the kind of err, treating untyped errors as store failures.
func KindOf(err error) Kind {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindStoreFailure
}

// StatusCode maps an error to its HTTP status.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindInvalidParameter, KindValidationFailed, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
