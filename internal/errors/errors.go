// Package errors provides the sentinel errors and error types shared by the
// question service.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrDatasetNotLoaded indicates no RMA table has been loaded yet.
	ErrDatasetNotLoaded = errors.New("dataset not loaded")

	// ErrEmptyQuestion indicates a blank question.
	ErrEmptyQuestion = errors.New("empty question")

	// ErrFallbackDisabled indicates no LLM provider is configured for
	// questions the rules do not recognize.
	ErrFallbackDisabled = errors.New("LLM fallback disabled")

	// ErrRateLimitExceeded indicates rate limit has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrInvalidInput indicates user provided invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownIntent indicates an intent name that is not part of the catalog.
	ErrUnknownIntent = errors.New("unknown intent")
)

// ValidationError represents input validation failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsDatasetNotLoaded checks if an error is ErrDatasetNotLoaded.
func IsDatasetNotLoaded(err error) bool {
	return errors.Is(err, ErrDatasetNotLoaded)
}

// IsRateLimitExceeded checks if an error is ErrRateLimitExceeded.
func IsRateLimitExceeded(err error) bool {
	return errors.Is(err, ErrRateLimitExceeded)
}

// IsInvalidInput checks if an error is ErrInvalidInput.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
