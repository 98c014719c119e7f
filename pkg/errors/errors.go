package errors

import (
	"errors"
	"fmt"
)

var (
	ErrTitlesNotFound    = errors.New("title directory not found")
	ErrMalformedInput    = errors.New("malformed input")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrNoCategories      = errors.New("no category vectors")
	ErrMissingLabel      = errors.New("query has no ground truth label")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrUsage             = errors.New("usage")
)

// Process exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

type AppError struct {
	Err     error
	Message string
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, message string) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: message,
	}
}

func Newf(sentinel error, format string, args ...any) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: fmt.Sprintf(format, args...),
	}
}

// Recoverable reports whether err only affects a single query and the run may
// continue with the next one.
func Recoverable(err error) bool {
	return errors.Is(err, ErrTitlesNotFound)
}

func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrUsage), errors.Is(err, ErrInvalidConfig):
		return ExitUsage
	default:
		return ExitError
	}
}
