package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorWrapper(t *testing.T) {
	t.Parallel()
	wrapper := NewWrapper("assistant", "llm_fallback")

	t.Run("Wrap returns nil for nil error", func(t *testing.T) {
		t.Parallel()
		if result := wrapper.Wrap(nil, "Lỗi"); result != nil {
			t.Errorf("expected nil, got %v", result)
		}
		if result := wrapper.Wrapf(nil, "Lỗi %d", 1); result != nil {
			t.Errorf("expected nil, got %v", result)
		}
	})

	t.Run("Wrap creates WrappedError", func(t *testing.T) {
		t.Parallel()
		baseErr := errors.New("connection refused")
		wrapped := wrapper.Wrap(baseErr, "Lỗi khi gọi mô hình ngôn ngữ")

		var wrappedErr *WrappedError
		if !errors.As(wrapped, &wrappedErr) {
			t.Fatal("expected WrappedError type")
		}
		if wrappedErr.Component != "assistant" || wrappedErr.Operation != "llm_fallback" {
			t.Errorf("context = %s/%s", wrappedErr.Component, wrappedErr.Operation)
		}
		if !errors.Is(wrapped, baseErr) {
			t.Error("wrapped error should unwrap to base error")
		}
		want := "[assistant:llm_fallback] Lỗi khi gọi mô hình ngôn ngữ: connection refused"
		if wrapped.Error() != want {
			t.Errorf("Error() = %q, want %q", wrapped.Error(), want)
		}
	})

	t.Run("Wrapf formats message", func(t *testing.T) {
		t.Parallel()
		wrapped := wrapper.Wrapf(errors.New("timeout"), "Lỗi khi gọi mô hình ngôn ngữ: %s", "timeout")
		if got := GetUserMessage(wrapped); got != "Lỗi khi gọi mô hình ngôn ngữ: timeout" {
			t.Errorf("GetUserMessage() = %q", got)
		}
	})
}

func TestGetUserMessage(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain error", errors.New("boom"), "boom"},
		{"wrapped", NewWrapper("dataset", "reload").Wrap(errors.New("eof"), "Không đọc được dữ liệu"), "Không đọc được dữ liệu"},
		{
			name: "wrapped twice by fmt",
			err:  fmt.Errorf("handler: %w", NewWrapper("dataset", "reload").Wrap(errors.New("eof"), "Không đọc được dữ liệu")),
			want: "Không đọc được dữ liệu",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := GetUserMessage(tt.err); got != tt.want {
				t.Errorf("GetUserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
