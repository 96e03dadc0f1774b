package genai

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrorAction defines the action to take based on error type.
type ErrorAction int

const (
	// ActionRetry retries the same model after a backoff.
	ActionRetry ErrorAction = iota
	// ActionFallback moves on to the next answerer in the chain.
	ActionFallback
	// ActionFail stops the chain (the request itself is bad or was canceled).
	ActionFail
)

// String returns a human-readable string for the error action.
func (a ErrorAction) String() string {
	switch a {
	case ActionRetry:
		return "retry"
	case ActionFallback:
		return "fallback"
	case ActionFail:
		return "fail"
	default:
		return "unknown"
	}
}

// ErrEmptyAnswer is returned when a model replies with no text.
var ErrEmptyAnswer = errors.New("model returned an empty answer")

// LLMError wraps an error with additional context for retry/fallback decisions.
type LLMError struct {
	Err        error
	StatusCode int
	Provider   Provider
	Model      string
	// RetryAfter is the server-requested wait, zero when not given.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *LLMError) Error() string {
	msg := e.Err.Error()
	if e.Provider != "" {
		msg = string(e.Provider) + ": " + msg
	}
	if e.StatusCode > 0 {
		msg += " (status: " + strconv.Itoa(e.StatusCode) + ")"
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *LLMError) Unwrap() error {
	return e.Err
}

// ClassifyError determines the appropriate action based on the error:
//   - transient errors (429, 5xx, network, empty reply) are retried
//   - quota exhaustion and auth problems move to the next answerer
//   - malformed requests and cancellation stop the chain
func ClassifyError(err error) ErrorAction {
	if err == nil {
		return ActionFail
	}

	if errors.Is(err, context.Canceled) {
		return ActionFail
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ActionRetry
	}
	if errors.Is(err, ErrEmptyAnswer) {
		return ActionFallback
	}

	var llmErr *LLMError
	if errors.As(err, &llmErr) && llmErr.StatusCode > 0 {
		return classifyStatusCode(llmErr.StatusCode)
	}

	errStr := strings.ToLower(err.Error())

	// Quota first: it also matches "rate limit" phrasing but will not clear soon.
	if containsAny(errStr, "quota", "daily limit", "monthly limit", "billing") {
		return ActionFallback
	}
	if containsAny(errStr, "429", "rate limit", "too many requests", "resource_exhausted") {
		return ActionRetry
	}
	if containsAny(errStr, "unavailable", "503", "502", "500", "504",
		"internal server error", "bad gateway", "gateway timeout", "overloaded", "capacity") {
		return ActionRetry
	}
	if containsAny(errStr, "408", "409", "timeout", "deadline", "connection") {
		return ActionRetry
	}
	if containsAny(errStr, "401", "unauthorized", "unauthenticated", "invalid api key",
		"403", "forbidden", "permission denied", "404", "not found") {
		return ActionFallback
	}
	if containsAny(errStr, "400", "bad request", "malformed", "422", "unprocessable") {
		return ActionFail
	}

	return ActionRetry
}

// classifyStatusCode determines action based on HTTP status code.
// Credentials and model names are per answerer, so 401/403/404 fall back
// instead of failing the whole chain.
func classifyStatusCode(statusCode int) ErrorAction {
	switch {
	case statusCode == http.StatusTooManyRequests,
		statusCode == http.StatusRequestTimeout,
		statusCode == http.StatusConflict,
		statusCode >= 500 && statusCode < 600:
		return ActionRetry
	case statusCode == http.StatusUnauthorized,
		statusCode == http.StatusForbidden,
		statusCode == http.StatusNotFound,
		statusCode == http.StatusPaymentRequired:
		return ActionFallback
	case statusCode >= 400 && statusCode < 500:
		return ActionFail
	default:
		return ActionRetry
	}
}

// ParseRetryAfter parses the Retry-After header value.
// Supports both integer seconds and HTTP-date formats.
// Returns 0 if header is missing or invalid.
func ParseRetryAfter(headers http.Header) time.Duration {
	if headers == nil {
		return 0
	}

	// retry-after-ms is non-standard but precise
	if msStr := headers.Get("retry-after-ms"); msStr != "" {
		if ms, err := strconv.Atoi(msStr); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}

	if secStr := headers.Get("retry-after"); secStr != "" {
		if sec, err := strconv.Atoi(secStr); err == nil && sec > 0 {
			return time.Duration(sec) * time.Second
		}
		if t, err := http.ParseTime(secStr); err == nil {
			if d := time.Until(t); d > 0 {
				return d
			}
		}
	}

	// Groq-specific header
	if resetStr := headers.Get("x-ratelimit-reset-tokens"); resetStr != "" {
		if d, err := time.ParseDuration(resetStr); err == nil {
			return d
		}
	}

	return 0
}

// IsPermanent returns true if the error stops the whole chain.
func IsPermanent(err error) bool {
	return ClassifyError(err) == ActionFail
}

// containsAny checks if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// WrapError wraps an error with provider, model and status code information.
func WrapError(err error, provider Provider, model string, statusCode int) error {
	if err == nil {
		return nil
	}
	return &LLMError{
		Err:        err,
		StatusCode: statusCode,
		Provider:   provider,
		Model:      model,
	}
}

// retryAfter returns the server-requested wait carried by err, if any.
func retryAfter(err error) time.Duration {
	var llmErr *LLMError
	if errors.As(err, &llmErr) {
		return llmErr.RetryAfter
	}
	return 0
}

// classifyErrorType maps an error to a metric status label.
func classifyErrorType(err error) string {
	if err == nil {
		return "success"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	if errors.Is(err, ErrEmptyAnswer) {
		return "empty"
	}

	var llmErr *LLMError
	if errors.As(err, &llmErr) && llmErr.StatusCode > 0 {
		switch {
		case llmErr.StatusCode == http.StatusTooManyRequests:
			return "rate_limit"
		case llmErr.StatusCode >= 500:
			return "server_error"
		case llmErr.StatusCode == http.StatusUnauthorized || llmErr.StatusCode == http.StatusForbidden:
			return "auth_error"
		default:
			return "client_error"
		}
	}
	return "error"
}
