// Package sentry sets up error reporting to Better Stack through the Sentry
// SDK. Better Stack accepts Sentry envelopes, so only the DSN differs.
package sentry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/rmadesk/rma-qa/internal/ctxutil"
)

// ErrMissingHost is returned when a token is configured without a host.
var ErrMissingHost = errors.New("sentry host is required when token is provided")

// Config holds Sentry configuration for Better Stack integration.
type Config struct {
	// Token is the Better Stack Errors application token. Empty disables reporting.
	Token string

	// Host is the Better Stack Errors ingesting host (e.g., "errors.betterstack.com").
	Host string

	Environment string
	Release     string

	// SampleRate controls error sampling (0.0-1.0, default 1.0).
	SampleRate float64

	Debug bool
}

// ClientOptions builds the SDK options for cfg. The DSN has the form
// https://TOKEN@HOST/1; Better Stack ignores the project ID.
func ClientOptions(cfg Config) (sentry.ClientOptions, error) {
	if cfg.Host == "" {
		return sentry.ClientOptions{}, ErrMissingHost
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 || sampleRate > 1 {
		sampleRate = 1.0
	}

	return sentry.ClientOptions{
		Dsn:              fmt.Sprintf("https://%s@%s/1", cfg.Token, cfg.Host),
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		Debug:            cfg.Debug,
		AttachStacktrace: true,
	}, nil
}

// Initialize sets up the global Sentry client. An empty token disables
// Sentry and returns nil.
func Initialize(cfg Config) error {
	if cfg.Token == "" {
		return nil
	}
	opts, err := ClientOptions(cfg)
	if err != nil {
		return err
	}
	return sentry.Init(opts)
}

// Flush waits for buffered events to be sent to the server.
// Returns true if all events were sent within the timeout.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// IsEnabled returns true if Sentry is initialized and active.
func IsEnabled() bool {
	return sentry.CurrentHub().Client() != nil
}

// CaptureQuestionError reports a failure while answering a question. The
// request ID from ctx and the given tags are attached to the event.
// Returns the event ID, or nil when Sentry is disabled.
func CaptureQuestionError(ctx context.Context, err error, tags map[string]string) *sentry.EventID {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}
	if hub.Client() == nil {
		return nil
	}

	var id *sentry.EventID
	hub.WithScope(func(scope *sentry.Scope) {
		if requestID, ok := ctxutil.GetRequestID(ctx); ok && requestID != "" {
			scope.SetTag("request_id", requestID)
		}
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		id = hub.CaptureException(err)
	})
	return id
}
