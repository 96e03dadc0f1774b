package config

import (
	"testing"
	"time"
)

func TestHTTPTimeouts(t *testing.T) {
	tests := []struct {
		name     string
		got      time.Duration
		expected time.Duration
	}{
		{"RequestProcessing", RequestProcessing, 60 * time.Second},
		{"HTTPRead", HTTPRead, 10 * time.Second},
		{"HTTPWrite", HTTPWrite, 65 * time.Second},
		{"HTTPIdle", HTTPIdle, 120 * time.Second},
		{"HTTPReadHeader", HTTPReadHeader, 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}
}

// TestTimeoutRelationships checks the orderings the server relies on.
func TestTimeoutRelationships(t *testing.T) {
	t.Run("write covers processing", func(t *testing.T) {
		if HTTPWrite <= RequestProcessing {
			t.Errorf("HTTPWrite (%v) should exceed RequestProcessing (%v)", HTTPWrite, RequestProcessing)
		}
	})

	t.Run("LLM fits inside request", func(t *testing.T) {
		if LLMRequest >= RequestProcessing {
			t.Errorf("LLMRequest (%v) should be below RequestProcessing (%v)", LLMRequest, RequestProcessing)
		}
	})

	t.Run("idle exceeds write", func(t *testing.T) {
		if HTTPIdle <= HTTPWrite {
			t.Errorf("HTTPIdle (%v) should exceed HTTPWrite (%v)", HTTPIdle, HTTPWrite)
		}
	})

	t.Run("sentry flush within shutdown", func(t *testing.T) {
		if SentryFlush >= GracefulShutdown {
			t.Errorf("SentryFlush (%v) should be below GracefulShutdown (%v)", SentryFlush, GracefulShutdown)
		}
	})
}
