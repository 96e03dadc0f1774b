package errors

import (
	"errors"
	"fmt"
)

// ErrorWrapper attaches a component and operation to errors so logs show
// where a failure happened while the caller still gets a Vietnamese message.
type ErrorWrapper struct {
	component string
	operation string
}

// NewWrapper creates a new error wrapper with component and operation context.
func NewWrapper(component, operation string) *ErrorWrapper {
	return &ErrorWrapper{
		component: component,
		operation: operation,
	}
}

// Wrap wraps an error with operation context.
// Returns nil if err is nil.
func (w *ErrorWrapper) Wrap(err error, userMessage string) error {
	if err == nil {
		return nil
	}
	return &WrappedError{
		Component:   w.component,
		Operation:   w.operation,
		Cause:       err,
		UserMessage: userMessage,
	}
}

// Wrapf wraps an error with formatted message.
func (w *ErrorWrapper) Wrapf(err error, userMessageFormat string, args ...any) error {
	if err == nil {
		return nil
	}
	return w.Wrap(err, fmt.Sprintf(userMessageFormat, args...))
}

// WrappedError contains both internal error details and user-facing message.
type WrappedError struct {
	Component   string // e.g. "assistant", "dataset"
	Operation   string // e.g. "llm_fallback", "reload"
	Cause       error
	UserMessage string // Vietnamese text safe to show to the asker
}

func (e *WrappedError) Error() string {
	return fmt.Sprintf("[%s:%s] %s: %v", e.Component, e.Operation, e.UserMessage, e.Cause)
}

func (e *WrappedError) Unwrap() error {
	return e.Cause
}

// GetUserMessage returns the user-facing message of the outermost
// WrappedError in err's chain, or err.Error() when there is none.
func GetUserMessage(err error) string {
	if err == nil {
		return ""
	}
	var wrapped *WrappedError
	if errors.As(err, &wrapped) {
		return wrapped.UserMessage
	}
	return err.Error()
}
