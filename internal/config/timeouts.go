// Timeout and interval constants shared by the server and its background jobs.
package config

import "time"

// HTTP server timeouts
const (
	// RequestProcessing bounds a single /api/ask request, LLM fallback included.
	RequestProcessing = 60 * time.Second

	// HTTPRead is the server read timeout. Question payloads are small.
	HTTPRead = 10 * time.Second

	// HTTPWrite must cover RequestProcessing plus serialization.
	HTTPWrite = 65 * time.Second

	// HTTPIdle is the keep-alive idle timeout.
	HTTPIdle = 120 * time.Second

	// HTTPReadHeader guards against slow header attacks.
	HTTPReadHeader = 5 * time.Second
)

// LLM timeouts
const (
	// LLMRequest bounds the whole fallback chain for one question.
	// It stays below RequestProcessing so the handler can still answer.
	LLMRequest = 45 * time.Second
)

// Database timeouts
const (
	// DatabaseBusyTimeout is the SQLite busy_timeout pragma value.
	DatabaseBusyTimeout = 30 * time.Second

	// DatabaseConnMaxLifetime recycles pooled connections.
	DatabaseConnMaxLifetime = time.Hour

	// HistoryWrite bounds the detached write of one history row.
	HistoryWrite = 5 * time.Second
)

// Background job intervals
const (
	// HistoryPruneInterval is how often old history rows are deleted.
	HistoryPruneInterval = 12 * time.Hour

	// RateLimiterCleanupInterval is how often idle per-client buckets are dropped.
	RateLimiterCleanupInterval = 5 * time.Minute
)

// Graceful shutdown
const (
	// GracefulShutdown lets in-flight requests finish before the server stops.
	GracefulShutdown = 30 * time.Second

	// SentryFlush bounds the wait for buffered error events at exit.
	SentryFlush = 2 * time.Second
)
