package common

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound            = errors.New("resource not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrMissingPrerequisite = errors.New("missing prerequisite")
	ErrSpreadsheet         = errors.New("spreadsheet error")
	ErrQueueClosed         = errors.New("queue is shutting down")
	ErrQueueFull           = errors.New("queue is full")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// MissingPrerequisiteError names the subpath a run could not find.
func MissingPrerequisiteError(name, path string) *AppError {
	return NewAppError("MISSING_PREREQUISITE", fmt.Sprintf("%s not found at %s", name, path), ErrMissingPrerequisite)
}

// SpreadsheetError wraps a workbook failure.
func SpreadsheetError(message string, cause error) *AppError {
	if cause == nil {
		cause = ErrSpreadsheet
	} else {
		cause = fmt.Errorf("%w: %w", ErrSpreadsheet, cause)
	}
	return NewAppError("SPREADSHEET_ERROR", message, cause)
}

// HTTP error helpers

// HTTPStatus maps an error to the status code the HTTP front end answers with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrMissingPrerequisite):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrQueueClosed), errors.Is(err, ErrQueueFull):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode returns the AppError code carried by err, or "INTERNAL".
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "INTERNAL"
}
