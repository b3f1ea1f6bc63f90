package domain

import (
	"errors"
	"strings"
)

// Sentinel errors shared by repositories and services.
var (
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence error")
)

// ValidationError lists every rule a request broke. Use errors.As to detect it.
type ValidationError struct {
	Messages []string
}

// NewValidationError returns a ValidationError, or nil when msgs is empty.
func NewValidationError(msgs ...string) error {
	if len(msgs) == 0 {
		return nil
	}
	return &ValidationError{Messages: msgs}
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}
