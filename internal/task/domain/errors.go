package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for task operations. Callers branch with errors.Is; the
// HTTP layer maps them to status codes.
var (
	ErrNotFound   = errors.New("task not found")
	ErrValidation = errors.New("validation failed")
	ErrLocked     = errors.New("task is locked")
	ErrConflict   = errors.New("task was modified concurrently")
)

// Validationf wraps ErrValidation with a formatted detail message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
