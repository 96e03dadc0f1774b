package ratelimit

import (
	"sync"
	"time"
)

// WindowCounter caps requests over a rolling window using the sliding
// window counter approximation: the previous fixed window's count is
// weighted by how much of it still overlaps the rolling window.
//
//	effective = current + previous * (window - elapsed) / window
//
// A nil *WindowCounter allows everything.
type WindowCounter struct {
	mu          sync.Mutex
	curr        int
	prev        int
	start       time.Time
	window      time.Duration
	maxRequests int
}

// NewWindowCounter returns nil (disabled) when maxRequests <= 0.
func NewWindowCounter(maxRequests int, window time.Duration) *WindowCounter {
	if maxRequests <= 0 || window <= 0 {
		return nil
	}
	return &WindowCounter{
		start:       time.Now(),
		window:      window,
		maxRequests: maxRequests,
	}
}

// Check reports whether one more request fits.
func (w *WindowCounter) Check() bool {
	if w == nil {
		return true
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	w.rotate()
	return w.effective() < float64(w.maxRequests)
}

// Consume records one request if it fits.
func (w *WindowCounter) Consume() {
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	w.rotate()
	if w.effective() < float64(w.maxRequests) {
		w.curr++
	}
}

// Remaining returns the approximate number of requests left, or -1 when
// the counter is disabled.
func (w *WindowCounter) Remaining() int {
	if w == nil {
		return -1
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	w.rotate()
	return max(0, int(float64(w.maxRequests)-w.effective()))
}

// rotate must be called with mu held.
func (w *WindowCounter) rotate() {
	elapsed := time.Since(w.start)
	if elapsed < w.window {
		return
	}
	passed := int(elapsed / w.window)
	if passed == 1 {
		w.prev = w.curr
	} else {
		w.prev = 0
	}
	w.curr = 0
	w.start = w.start.Add(time.Duration(passed) * w.window)
}

// effective must be called with mu held.
func (w *WindowCounter) effective() float64 {
	overlap := float64(w.window-time.Since(w.start)) / float64(w.window)
	overlap = min(max(overlap, 0), 1)
	return float64(w.curr) + float64(w.prev)*overlap
}
