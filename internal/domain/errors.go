package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a unique constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotDraggable is returned when a drag starts on a job that cannot move.
	ErrNotDraggable = errors.New("item is not draggable")
	// ErrNoActiveDrag is returned when a drop arrives with nothing in flight.
	ErrNoActiveDrag = errors.New("no active drag")
)

// ValidationError is detected locally, before any gateway call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ConfirmationRequiredError is returned by destructive operations invoked
// without an explicit confirmation. Prompt is shown to the user.
type ConfirmationRequiredError struct {
	Prompt string
}

func (e *ConfirmationRequiredError) Error() string {
	return "confirmation required: " + e.Prompt
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsConfirmationRequired reports whether err is (or wraps) a ConfirmationRequiredError.
func IsConfirmationRequired(err error) bool {
	var c *ConfirmationRequiredError
	return errors.As(err, &c)
}
