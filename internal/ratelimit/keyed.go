package ratelimit

import (
	"sync"
	"time"

	"github.com/rmadesk/rma-qa/internal/config"
	"github.com/rmadesk/rma-qa/internal/metrics"
)

// KeyedConfig configures a KeyedLimiter.
type KeyedConfig struct {
	// Name labels drops in metrics (e.g. "llm").
	Name string

	// Token bucket per key.
	Burst      float64
	RefillRate float64 // tokens per second

	// DailyLimit caps requests per key over a rolling 24h window (0 = off).
	DailyLimit int

	// CleanupPeriod controls how often idle keys are forgotten.
	CleanupPeriod time.Duration

	Metrics *metrics.Metrics
}

// Decision is the outcome of KeyedLimiter.Allow.
type Decision struct {
	Allowed bool
	// RetryAfter estimates when the next request may pass; zero if allowed.
	RetryAfter time.Duration
	// DailyExhausted is set when the rolling daily cap, not the burst, refused.
	DailyExhausted bool
}

// KeyedLimiter keeps one token bucket (plus optional daily window) per key
// and forgets keys whose bucket has refilled.
type KeyedLimiter struct {
	mu      sync.RWMutex
	entries map[string]*keyedEntry
	config  KeyedConfig
	stopCh  chan struct{}
	once    sync.Once
}

// keyedEntry.mu makes the two-limit check-then-consume atomic.
type keyedEntry struct {
	mu      sync.Mutex
	limiter *Limiter
	daily   *WindowCounter
}

// NewKeyedLimiter starts the cleanup loop; call Stop when done.
func NewKeyedLimiter(cfg KeyedConfig) *KeyedLimiter {
	if cfg.CleanupPeriod <= 0 {
		cfg.CleanupPeriod = config.RateLimiterCleanupInterval
	}
	kl := &KeyedLimiter{
		entries: make(map[string]*keyedEntry),
		config:  cfg,
		stopCh:  make(chan struct{}),
	}
	go kl.cleanupLoop()
	return kl
}

// Allow consumes one request for key. An empty key is never limited.
func (kl *KeyedLimiter) Allow(key string) Decision {
	if kl == nil || key == "" {
		return Decision{Allowed: true}
	}

	entry := kl.getOrCreateEntry(key)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if !entry.daily.Check() {
		kl.config.Metrics.RecordRateLimiterDrop(kl.config.Name + "_daily")
		return Decision{RetryAfter: 24 * time.Hour, DailyExhausted: true}
	}
	if !entry.limiter.Check() {
		kl.config.Metrics.RecordRateLimiterDrop(kl.config.Name)
		return Decision{RetryAfter: entry.limiter.NextToken()}
	}

	entry.daily.Consume()
	entry.limiter.Consume()
	return Decision{Allowed: true}
}

func (kl *KeyedLimiter) getOrCreateEntry(key string) *keyedEntry {
	kl.mu.RLock()
	entry, ok := kl.entries[key]
	kl.mu.RUnlock()
	if ok {
		return entry
	}

	kl.mu.Lock()
	defer kl.mu.Unlock()
	if entry, ok = kl.entries[key]; ok {
		return entry
	}
	entry = &keyedEntry{
		limiter: New(kl.config.Burst, kl.config.RefillRate),
		daily:   NewWindowCounter(kl.config.DailyLimit, 24*time.Hour),
	}
	kl.entries[key] = entry
	return entry
}

// Available returns the tokens left for key (Burst for unseen keys).
func (kl *KeyedLimiter) Available(key string) float64 {
	kl.mu.RLock()
	entry, ok := kl.entries[key]
	kl.mu.RUnlock()
	if !ok {
		return kl.config.Burst
	}
	return entry.limiter.Available()
}

// ActiveCount returns the number of tracked keys.
func (kl *KeyedLimiter) ActiveCount() int {
	if kl == nil {
		return 0
	}
	kl.mu.RLock()
	defer kl.mu.RUnlock()
	return len(kl.entries)
}

func (kl *KeyedLimiter) cleanupLoop() {
	ticker := time.NewTicker(kl.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-kl.stopCh:
			return
		case <-ticker.C:
			kl.cleanup()
		}
	}
}

// cleanup drops idle keys. Keys with daily usage are kept so the rolling
// cap survives a refilled bucket.
func (kl *KeyedLimiter) cleanup() {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	for key, entry := range kl.entries {
		if entry.limiter.IsFull() && (entry.daily == nil || entry.daily.Remaining() == kl.config.DailyLimit) {
			delete(kl.entries, key)
		}
	}
}

// Stop ends the cleanup loop. Safe to call multiple times.
func (kl *KeyedLimiter) Stop() {
	if kl == nil {
		return
	}
	kl.once.Do(func() { close(kl.stopCh) })
}
