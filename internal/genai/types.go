// Package genai provides the LLM fallback used when a question matches no
// intent rule. A prompt carrying a CSV excerpt of the table is sent to an
// ordered chain of answerers.
//
// Architecture:
// - OpenAI and Groq: github.com/openai/openai-go/v3 (OpenAI-compatible API)
// - Gemini: google.golang.org/genai (official SDK)
//
// Fallback Strategy (3-layer):
// 1. Model Retry: Same model retried with exponential backoff
// 2. Model Chain: Next model in same provider's model list
// 3. Provider Chain: Next provider in RMA_LLM_PROVIDERS
package genai

import (
	"context"
	"time"
)

// Provider represents an LLM provider.
type Provider string

const (
	// ProviderOpenAI represents the OpenAI API or any server speaking its protocol.
	ProviderOpenAI Provider = "openai"
	// ProviderGemini represents Google's Gemini API (non-OpenAI-compatible).
	ProviderGemini Provider = "gemini"
	// ProviderGroq represents Groq's API (OpenAI-compatible, fast inference).
	ProviderGroq Provider = "groq"
)

// ProviderEndpoint defines the default base URL for OpenAI-compatible providers.
// An empty URL means the SDK default.
var ProviderEndpoint = map[Provider]string{
	ProviderOpenAI: "",
	ProviderGroq:   "https://api.groq.com/openai/v1/",
}

// IsOpenAICompatible returns true if the provider uses OpenAI-compatible API.
func (p Provider) IsOpenAICompatible() bool {
	_, ok := ProviderEndpoint[p]
	return ok
}

// String returns the string representation of the provider.
func (p Provider) String() string {
	return string(p)
}

// Answerer answers a free-form question about a table excerpt.
type Answerer interface {
	// Answer sends the prompt to the model and returns its reply.
	Answer(ctx context.Context, prompt Prompt) (*Answer, error)
	// Provider returns the provider type for metrics.
	Provider() Provider
	// Close releases any resources held by the answerer.
	Close() error
}

// Prompt is one chat request.
type Prompt struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Answer is a model reply.
type Answer struct {
	Text             string
	Provider         Provider
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// RetryConfig defines retry behavior for LLM API calls.
// Uses AWS-recommended Full Jitter exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	// Default: 2 (1 initial + 1 retry)
	MaxAttempts int

	// InitialDelay is the base delay before first retry.
	// Default: 500ms
	InitialDelay time.Duration

	// MaxDelay is the maximum delay between retries.
	// Default: 3s
	MaxDelay time.Duration
}

// ProviderConfig holds configuration for a single LLM provider.
type ProviderConfig struct {
	// APIKey is the API key for the provider.
	APIKey string

	// BaseURL overrides ProviderEndpoint for OpenAI-compatible providers.
	BaseURL string

	// Models is the ordered list of models.
	// First model is primary, rest are fallbacks tried in order.
	Models []string
}

// LLMConfig holds configuration for all LLM providers.
type LLMConfig struct {
	// Providers is the ordered list of providers to try.
	// Default: ["openai", "gemini", "groq"] (only those with API keys)
	Providers []Provider

	OpenAI ProviderConfig
	Gemini ProviderConfig
	Groq   ProviderConfig

	RetryConfig RetryConfig
}

// Default model configurations.
// First element is primary model, subsequent elements are fallbacks.
var (
	// DefaultOpenAIModels keeps the model the RMA assistant has always used.
	DefaultOpenAIModels = []string{"gpt-3.5-turbo"}

	// DefaultGeminiModels is the default model chain for Gemini.
	DefaultGeminiModels = []string{"gemini-2.5-flash", "gemini-2.5-flash-lite"}

	// DefaultGroqModels is the default model chain for Groq.
	DefaultGroqModels = []string{"llama-3.3-70b-versatile", "llama-3.1-8b-instant"}

	// DefaultProviders is the default provider order for fallback.
	DefaultProviders = []Provider{ProviderOpenAI, ProviderGemini, ProviderGroq}
)

// Retry configuration defaults
const (
	DefaultMaxRetryAttempts  = 2
	DefaultInitialRetryDelay = 500 * time.Millisecond
	DefaultMaxRetryDelay     = 3 * time.Second
)

// Generation defaults for RMA answers.
const (
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 500
)

// HasAnyProvider returns true if at least one provider is configured.
func (c *LLMConfig) HasAnyProvider() bool {
	return c.OpenAI.APIKey != "" || c.Gemini.APIKey != "" || c.Groq.APIKey != ""
}

// HasProvider returns true if the specified provider is configured with an API key.
func (c *LLMConfig) HasProvider(p Provider) bool {
	pc := c.GetProviderConfig(p)
	return pc != nil && pc.APIKey != ""
}

// GetProviderConfig returns the configuration for a specific provider.
func (c *LLMConfig) GetProviderConfig(p Provider) *ProviderConfig {
	switch p {
	case ProviderOpenAI:
		return &c.OpenAI
	case ProviderGemini:
		return &c.Gemini
	case ProviderGroq:
		return &c.Groq
	default:
		return nil
	}
}

// ConfiguredProviders returns the list of providers with configured API keys,
// in the order specified by c.Providers.
func (c *LLMConfig) ConfiguredProviders() []Provider {
	result := make([]Provider, 0, len(c.Providers))
	for _, p := range c.Providers {
		if c.HasProvider(p) {
			result = append(result, p)
		}
	}
	return result
}

// ParseProviders converts provider names, skipping unknown ones.
func ParseProviders(names []string) []Provider {
	out := make([]Provider, 0, len(names))
	for _, n := range names {
		p := Provider(n)
		switch p {
		case ProviderOpenAI, ProviderGemini, ProviderGroq:
			out = append(out, p)
		}
	}
	return out
}
