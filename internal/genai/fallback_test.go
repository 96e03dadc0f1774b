package genai

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/rmadesk/rma-qa/internal/metrics"
)

// fakeAnswerer replays a scripted sequence of errors before answering.
type fakeAnswerer struct {
	provider Provider
	errs     []error
	calls    atomic.Int32
	closed   atomic.Bool
	lastSeen Prompt
}

func (f *fakeAnswerer) Answer(_ context.Context, p Prompt) (*Answer, error) {
	n := int(f.calls.Add(1)) - 1
	f.lastSeen = p
	if n < len(f.errs) && f.errs[n] != nil {
		return nil, f.errs[n]
	}
	return &Answer{Text: "ok from " + string(f.provider), Provider: f.provider, PromptTokens: 10, CompletionTokens: 3}, nil
}

func (f *fakeAnswerer) Provider() Provider { return f.provider }

func (f *fakeAnswerer) Close() error {
	f.closed.Store(true)
	return nil
}

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestFallbackAnswerer_PrimarySuccess(t *testing.T) {
	t.Parallel()
	primary := &fakeAnswerer{provider: ProviderOpenAI}
	secondary := &fakeAnswerer{provider: ProviderGemini}
	f := NewFallbackAnswerer(fastRetry(2), nil, primary, secondary)

	answer, err := f.Answer(context.Background(), Prompt{User: "q"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer.Provider != ProviderOpenAI {
		t.Errorf("answered by %s, want openai", answer.Provider)
	}
	if secondary.calls.Load() != 0 {
		t.Error("secondary should not be called")
	}
	if primary.lastSeen.User != "q" {
		t.Errorf("prompt not forwarded: %+v", primary.lastSeen)
	}
}

func TestFallbackAnswerer_RetryThenSuccess(t *testing.T) {
	t.Parallel()
	primary := &fakeAnswerer{
		provider: ProviderOpenAI,
		errs:     []error{&LLMError{Err: errors.New("busy"), StatusCode: http.StatusServiceUnavailable}},
	}
	f := NewFallbackAnswerer(fastRetry(3), nil, primary)

	answer, err := f.Answer(context.Background(), Prompt{User: "q"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer.Provider != ProviderOpenAI {
		t.Errorf("answered by %s, want openai", answer.Provider)
	}
	if got := primary.calls.Load(); got != 2 {
		t.Errorf("primary called %d times, want 2", got)
	}
}

func TestFallbackAnswerer_FallsBack(t *testing.T) {
	t.Parallel()
	m := metrics.New(prometheus.NewRegistry())
	primary := &fakeAnswerer{
		provider: ProviderOpenAI,
		errs:     []error{&LLMError{Err: errors.New("quota"), StatusCode: http.StatusUnauthorized}},
	}
	secondary := &fakeAnswerer{provider: ProviderGemini}
	f := NewFallbackAnswerer(fastRetry(2), m, primary, secondary)

	answer, err := f.Answer(context.Background(), Prompt{User: "q"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer.Provider != ProviderGemini {
		t.Errorf("answered by %s, want gemini", answer.Provider)
	}
	if got := primary.calls.Load(); got != 1 {
		t.Errorf("401 should not be retried, primary called %d times", got)
	}
	if got := testutil.ToFloat64(m.LLMFallbackTotal.WithLabelValues("openai", "gemini")); got != 1 {
		t.Errorf("fallback metric = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.LLMRequestsTotal.WithLabelValues("openai", "auth_error")); got != 1 {
		t.Errorf("auth_error metric = %v, want 1", got)
	}
}

func TestFallbackAnswerer_RetryExhaustedFallsBack(t *testing.T) {
	t.Parallel()
	busy := &LLMError{Err: errors.New("busy"), StatusCode: http.StatusTooManyRequests}
	primary := &fakeAnswerer{provider: ProviderGroq, errs: []error{busy, busy}}
	secondary := &fakeAnswerer{provider: ProviderGemini}
	f := NewFallbackAnswerer(fastRetry(2), nil, primary, secondary)

	answer, err := f.Answer(context.Background(), Prompt{User: "q"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer.Provider != ProviderGemini {
		t.Errorf("answered by %s, want gemini", answer.Provider)
	}
	if got := primary.calls.Load(); got != 2 {
		t.Errorf("primary called %d times, want 2", got)
	}
}

func TestFallbackAnswerer_PermanentErrorStops(t *testing.T) {
	t.Parallel()
	primary := &fakeAnswerer{
		provider: ProviderOpenAI,
		errs:     []error{&LLMError{Err: errors.New("bad"), StatusCode: http.StatusBadRequest}},
	}
	secondary := &fakeAnswerer{provider: ProviderGemini}
	f := NewFallbackAnswerer(fastRetry(3), nil, primary, secondary)

	_, err := f.Answer(context.Background(), Prompt{User: "q"})
	if err == nil {
		t.Fatal("expected error")
	}
	if secondary.calls.Load() != 0 {
		t.Error("secondary should not be called after a permanent error")
	}
}

func TestFallbackAnswerer_AllFail(t *testing.T) {
	t.Parallel()
	empty := WrapError(ErrEmptyAnswer, ProviderOpenAI, "m", 0)
	primary := &fakeAnswerer{provider: ProviderOpenAI, errs: []error{empty}}
	secondary := &fakeAnswerer{provider: ProviderGemini, errs: []error{empty}}
	f := NewFallbackAnswerer(fastRetry(2), nil, primary, secondary)

	_, err := f.Answer(context.Background(), Prompt{User: "q"})
	if !errors.Is(err, ErrEmptyAnswer) {
		t.Errorf("err = %v, want ErrEmptyAnswer in chain", err)
	}
}

func TestFallbackAnswerer_CanceledContext(t *testing.T) {
	t.Parallel()
	primary := &fakeAnswerer{provider: ProviderOpenAI}
	f := NewFallbackAnswerer(fastRetry(2), nil, primary)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Answer(ctx, Prompt{User: "q"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if primary.calls.Load() != 0 {
		t.Error("answerer should not be called with a canceled context")
	}
}

func TestFallbackAnswerer_Empty(t *testing.T) {
	t.Parallel()
	var nilChain *FallbackAnswerer
	if _, err := nilChain.Answer(context.Background(), Prompt{}); !errors.Is(err, ErrNoAnswerer) {
		t.Errorf("nil chain err = %v, want ErrNoAnswerer", err)
	}

	f := NewFallbackAnswerer(fastRetry(1), nil, nil, nil)
	if f.Len() != 0 {
		t.Errorf("nil answerers should be skipped, Len() = %d", f.Len())
	}
	if _, err := f.Answer(context.Background(), Prompt{}); !errors.Is(err, ErrNoAnswerer) {
		t.Errorf("empty chain err = %v, want ErrNoAnswerer", err)
	}
	if f.Provider() != "" {
		t.Errorf("empty chain provider = %q", f.Provider())
	}
}

func TestFallbackAnswerer_Close(t *testing.T) {
	t.Parallel()
	a := &fakeAnswerer{provider: ProviderOpenAI}
	b := &fakeAnswerer{provider: ProviderGemini}
	f := NewFallbackAnswerer(fastRetry(1), nil, a, b)

	if err := f.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if !a.closed.Load() || !b.closed.Load() {
		t.Error("every answerer should be closed")
	}
	if f.Provider() != ProviderOpenAI {
		t.Errorf("Provider() = %s, want openai", f.Provider())
	}
}
