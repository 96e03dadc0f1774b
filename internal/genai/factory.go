package genai

import (
	"context"
	"log/slog"

	"github.com/rmadesk/rma-qa/internal/metrics"
)

// CreateAnswerer builds the fallback chain from cfg: every model of the
// first configured provider, then every model of the next, and so on.
// Returns nil if no provider has an API key.
func CreateAnswerer(ctx context.Context, cfg LLMConfig, m *metrics.Metrics) (*FallbackAnswerer, error) {
	var answerers []Answerer

	for _, provider := range cfg.ConfiguredProviders() {
		pc := cfg.GetProviderConfig(provider)
		models := pc.Models
		if len(models) == 0 {
			models = defaultModels(provider)
		}
		for _, model := range models {
			a, err := newAnswerer(ctx, provider, pc, model)
			if err != nil {
				slog.WarnContext(ctx, "failed to create answerer",
					"provider", provider,
					"model", model,
					"error", err)
				continue
			}
			if a != nil {
				answerers = append(answerers, a)
			}
		}
	}

	if len(answerers) == 0 {
		slog.InfoContext(ctx, "no LLM provider configured for fallback answers")
		return nil, nil
	}

	slog.InfoContext(ctx, "LLM fallback configured",
		"primary", answerers[0].Provider(),
		"chainSize", len(answerers))

	return NewFallbackAnswerer(cfg.RetryConfig, m, answerers...), nil
}

func newAnswerer(ctx context.Context, provider Provider, pc *ProviderConfig, model string) (Answerer, error) {
	if provider == ProviderGemini {
		a, err := newGeminiAnswerer(ctx, pc.APIKey, model)
		if a == nil || err != nil {
			return nil, err
		}
		return a, nil
	}
	a, err := newOpenAIAnswerer(provider, pc.APIKey, pc.BaseURL, model)
	if a == nil || err != nil {
		return nil, err
	}
	return a, nil
}

func defaultModels(p Provider) []string {
	switch p {
	case ProviderOpenAI:
		return DefaultOpenAIModels
	case ProviderGemini:
		return DefaultGeminiModels
	case ProviderGroq:
		return DefaultGroqModels
	default:
		return nil
	}
}

// DefaultLLMConfig returns a default LLM configuration.
// API keys must be provided separately.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Providers:   DefaultProviders,
		OpenAI:      ProviderConfig{Models: DefaultOpenAIModels},
		Gemini:      ProviderConfig{Models: DefaultGeminiModels},
		Groq:        ProviderConfig{Models: DefaultGroqModels},
		RetryConfig: DefaultRetryConfig(),
	}
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  DefaultMaxRetryAttempts,
		InitialDelay: DefaultInitialRetryDelay,
		MaxDelay:     DefaultMaxRetryDelay,
	}
}
