package models

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrNotFound is returned when a resource is not found or soft-deleted
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists is returned on a unique constraint violation
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrNoFieldsToUpdate is returned when an update request carries no fields
	ErrNoFieldsToUpdate = errors.New("no fields to update")

	// ErrInvalidUUID is returned when a path or body id is not a UUID
	ErrInvalidUUID = errors.New("invalid UUID")

	// ErrDuplicateSubmission is returned when a site/backlink pair is already tracked
	ErrDuplicateSubmission = errors.New("submission for this site and backlink site already exists")

	// ErrDuplicateConnector is returned when a site already has a connector of the type
	ErrDuplicateConnector = errors.New("connector of this type already exists for the site")
)

// ValidationError reports bad or missing input. Handlers turn it into a 400.
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}
