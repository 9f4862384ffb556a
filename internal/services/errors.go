package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Error kinds. Handlers map them to HTTP statuses with errors.Is.
var (
	ErrValidation           = errors.New("validation_error")
	ErrInvalidStatus        = errors.New("invalid_status")
	ErrTaskLocked           = errors.New("task_locked")
	ErrPastDueDate          = errors.New("past_due_date")
	ErrAuthenticationFailed = errors.New("authentication_failed")
	ErrNotFound             = errors.New("not_found")
)

// ValidationError carries a human message and optional per-field messages.
// It unwraps to its Kind.
type ValidationError struct {
	Kind    error
	Message string
	Fields  map[string][]string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

func fieldError(kind error, field, message string) *ValidationError {
	return &ValidationError{
		Kind:    kind,
		Message: message,
		Fields:  map[string][]string{field: {message}},
	}
}

func authFailed(message string) *ValidationError {
	return &ValidationError{Kind: ErrAuthenticationFailed, Message: message}
}

// fieldErrors collects messages for several fields before failing once.
type fieldErrors map[string][]string

func (f fieldErrors) add(field, message string) {
	f[field] = append(f[field], message)
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Kind: ErrValidation, Message: "Invalid input.", Fields: f}
}

// storeError translates a missing row into ErrNotFound and wraps the rest.
func storeError(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
