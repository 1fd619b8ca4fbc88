package domain

import (
	"errors"
	"fmt"
)

var (
	ErrParsing          = errors.New("model output parsing failed")
	ErrValidation       = errors.New("invalid input")
	ErrUnsupportedScope = errors.New("unsupported request scope")
	ErrConnection       = errors.New("catalog connection failed")
	ErrAuth             = errors.New("catalog authorization failed")
	ErrData             = errors.New("malformed catalog payload")
	ErrNotFound         = errors.New("dashboard not found")
	ErrTimeout          = errors.New("deadline exceeded")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// ErrorKind names the taxonomy bucket of err for logging and metrics.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrUnsupportedScope):
		return "unsupported_scope"
	case errors.Is(err, ErrParsing):
		return "parsing"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrAuth):
		return "auth"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrData):
		return "data"
	case errors.Is(err, ErrConnection):
		return "connection"
	default:
		return "internal"
	}
}
