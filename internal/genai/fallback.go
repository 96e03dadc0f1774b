package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rmadesk/rma-qa/internal/metrics"
)

// ErrNoAnswerer is returned by a chain with no answerers.
var ErrNoAnswerer = errors.New("no LLM answerer configured")

// FallbackAnswerer tries an ordered chain of answerers. Each one is retried
// with backoff on transient errors; on fallback-worthy errors the next one
// is tried; a permanent error stops the chain.
type FallbackAnswerer struct {
	chain       []Answerer
	retryConfig RetryConfig
	metrics     *metrics.Metrics
}

// NewFallbackAnswerer creates a chain. Nil answerers are skipped.
func NewFallbackAnswerer(cfg RetryConfig, m *metrics.Metrics, answerers ...Answerer) *FallbackAnswerer {
	chain := make([]Answerer, 0, len(answerers))
	for _, a := range answerers {
		if a != nil {
			chain = append(chain, a)
		}
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &FallbackAnswerer{
		chain:       chain,
		retryConfig: cfg,
		metrics:     m,
	}
}

// Answer returns the first successful reply in chain order.
func (f *FallbackAnswerer) Answer(ctx context.Context, prompt Prompt) (*Answer, error) {
	if f == nil || len(f.chain) == 0 {
		return nil, ErrNoAnswerer
	}

	first := f.chain[0].Provider()
	var lastErr error

	for i, a := range f.chain {
		start := time.Now()
		answer, err := f.answerWithRetry(ctx, a, prompt)
		elapsed := time.Since(start).Seconds()

		if err == nil {
			f.metrics.RecordLLMRequest(string(a.Provider()), "success", elapsed)
			f.metrics.RecordLLMTokens(string(a.Provider()), answer.PromptTokens, answer.CompletionTokens)
			if i > 0 {
				f.metrics.RecordLLMFallback(string(first), string(a.Provider()))
			}
			return answer, nil
		}

		lastErr = err
		f.metrics.RecordLLMRequest(string(a.Provider()), classifyErrorType(err), elapsed)

		action := ClassifyError(err)
		slog.WarnContext(ctx, "answerer failed",
			"provider", a.Provider(),
			"position", i,
			"error", err,
			"action", action)

		if action == ActionFail {
			return nil, err
		}
		if i+1 < len(f.chain) {
			slog.InfoContext(ctx, "falling back to next answerer",
				"from", a.Provider(),
				"to", f.chain[i+1].Provider())
		}
	}

	return nil, fmt.Errorf("all %d answerers failed: %w", len(f.chain), lastErr)
}

// answerWithRetry retries one answerer while the error stays transient.
func (f *FallbackAnswerer) answerWithRetry(ctx context.Context, a Answerer, prompt Prompt) (*Answer, error) {
	var lastErr error

	for attempt := range f.retryConfig.MaxAttempts {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		answer, err := a.Answer(ctx, prompt)
		if err == nil {
			return answer, nil
		}
		lastErr = err

		if ClassifyError(err) != ActionRetry {
			return nil, err
		}
		if attempt == f.retryConfig.MaxAttempts-1 {
			break
		}

		delay := f.retryConfig.delayBefore(attempt+1, err)
		slog.DebugContext(ctx, "retrying answer",
			"provider", a.Provider(),
			"attempt", attempt+1,
			"delay", delay,
			"error", err)

		if err := waitRetry(ctx, delay); err != nil {
			if errors.Is(err, errRetryBudget) {
				return nil, fmt.Errorf("%w: %w", errRetryBudget, lastErr)
			}
			return nil, err
		}
	}

	return nil, lastErr
}

// Provider returns the first provider of the chain.
func (f *FallbackAnswerer) Provider() Provider {
	if f == nil || len(f.chain) == 0 {
		return ""
	}
	return f.chain[0].Provider()
}

// Len returns the number of answerers in the chain.
func (f *FallbackAnswerer) Len() int {
	if f == nil {
		return 0
	}
	return len(f.chain)
}

// Close closes every answerer.
func (f *FallbackAnswerer) Close() error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, a := range f.chain {
		if err := a.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
