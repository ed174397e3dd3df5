package common

import (
	"errors"
	"fmt"
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

// Pipeline error taxonomy. Per-message errors (extraction format, layout
// overflow, dispatch) fail one message; cycle errors (connection, catalog)
// abort the current polling cycle only. The polling loop survives both.
var (
	ErrConnection       = errors.New("mailbox connection failed")
	ErrExtractionFormat = errors.New("extraction response format invalid")
	ErrCatalogRead      = errors.New("catalog read failed")
	ErrLayoutOverflow   = errors.New("invoice layout overflows single page")
	ErrDispatch         = errors.New("invoice dispatch failed")
	ErrInvalidInput     = errors.New("invalid input")
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
