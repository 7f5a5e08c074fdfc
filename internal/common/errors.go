package common

import (
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error

	stack []byte
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

// Stack returns the stack captured where the error was constructed.
func (e *AppError) Stack() string {
	return string(e.stack)
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")
	ErrMalformed    = errors.New("malformed record")
	ErrStageFailed  = errors.New("stage failed")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
		stack:   goerrors.New(message).Stack(),
	}
}

// StackOf returns the captured stack of the first AppError in err's chain, or "".
func StackOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Stack()
	}
	return ""
}
