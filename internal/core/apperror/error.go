// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All filter-engine and API errors use AppError for consistent responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors (400)
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidInput = "INVALID_INPUT"

	// Filter definition errors (400/422)
	CodeInvalidOperator  = "INVALID_OPERATOR"
	CodeUnknownNamespace = "UNKNOWN_NAMESPACE"
	CodeUnknownRule      = "UNKNOWN_RULE"
	CodeInvalidRuleArgs  = "INVALID_RULE_ARGS"
	CodeFilterCycle      = "FILTER_CYCLE"

	// Authorization errors (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound       = "NOT_FOUND"
	CodeFilterNotFound = "FILTER_NOT_FOUND"
)

// AppError is the standard error type for the platform.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (operator, namespace, rule class, ...)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInvalidOperator is returned when a filter's logical operator is not one of and/or/one.
func NewInvalidOperator(op string) *AppError {
	return &AppError{
		Code:       CodeInvalidOperator,
		Message:    fmt.Sprintf("invalid operator: %q", op),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"operator": op},
	}
}

// NewUnknownNamespace is returned for a record-kind tag no filter type is bound to.
func NewUnknownNamespace(namespace string) *AppError {
	return &AppError{
		Code:       CodeUnknownNamespace,
		Message:    fmt.Sprintf("unknown filter namespace %q", namespace),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"namespace": namespace},
	}
}

// NewUnknownRule is returned when a filter definition names a rule class that is not registered.
func NewUnknownRule(class string) *AppError {
	return &AppError{
		Code:       CodeUnknownRule,
		Message:    fmt.Sprintf("unknown rule class %q", class),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"class": class},
	}
}

// NewInvalidRuleArgs is returned when a rule is built with arguments it cannot use.
func NewInvalidRuleArgs(class, message string) *AppError {
	return &AppError{
		Code:       CodeInvalidRuleArgs,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"class": class},
	}
}

// NewFilterCycle is returned when nested filters reference each other in a loop.
func NewFilterCycle(name string) *AppError {
	return &AppError{
		Code:       CodeFilterCycle,
		Message:    fmt.Sprintf("filter %q references itself", name),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"filter": name},
	}
}

// NewFilterNotFound is returned when a named custom filter does not exist in a namespace.
func NewFilterNotFound(namespace, name string) *AppError {
	return &AppError{
		Code:       CodeFilterNotFound,
		Message:    fmt.Sprintf("filter %q not found", name),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"namespace": namespace, "name": name},
	}
}

// NewDatabase wraps a storage failure (500).
func NewDatabase(err error) *AppError {
	return &AppError{
		Code:       CodeDatabase,
		Message:    "Database error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401)
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403)
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// --- Helper functions ---

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}
