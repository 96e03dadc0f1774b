package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		checkFn  func(error) bool
		expected bool
	}{
		{"ErrDatasetNotLoaded is recognized", ErrDatasetNotLoaded, IsDatasetNotLoaded, true},
		{"wrapped ErrDatasetNotLoaded is recognized", fmt.Errorf("ask: %w", ErrDatasetNotLoaded), IsDatasetNotLoaded, true},
		{"different error is not ErrDatasetNotLoaded", ErrRateLimitExceeded, IsDatasetNotLoaded, false},
		{"ErrRateLimitExceeded is recognized", ErrRateLimitExceeded, IsRateLimitExceeded, true},
		{"joined ErrRateLimitExceeded is recognized", errors.Join(ErrRateLimitExceeded, errors.New("key")), IsRateLimitExceeded, true},
		{"ErrInvalidInput is recognized", ErrInvalidInput, IsInvalidInput, true},
		{"ValidationError is invalid input", NewValidationError("question", "blank"), IsInvalidInput, true},
		{"nil is nothing", nil, IsInvalidInput, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.checkFn(tt.err); got != tt.expected {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	t.Parallel()
	err := NewValidationError("limit", "must be positive")

	expected := "validation failed on limit: must be positive"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}

	var target *ValidationError
	if !errors.As(fmt.Errorf("history: %w", err), &target) {
		t.Fatal("errors.As should find ValidationError")
	}
	if target.Field != "limit" {
		t.Errorf("Field = %q, want limit", target.Field)
	}
}
