package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// openaiAnswerer answers through any OpenAI-compatible chat completions API.
type openaiAnswerer struct {
	client   openai.Client
	model    string
	provider Provider
}

// newOpenAIAnswerer creates an OpenAI-compatible answerer.
// Returns nil if apiKey is empty (provider disabled).
func newOpenAIAnswerer(provider Provider, apiKey, baseURL, model string) (*openaiAnswerer, error) {
	if apiKey == "" {
		return nil, nil //nolint:nilnil // Intentional: provider disabled when no API key
	}

	endpoint, ok := ProviderEndpoint[provider]
	if !ok {
		return nil, fmt.Errorf("unsupported OpenAI-compatible provider: %s", provider)
	}
	if baseURL != "" {
		endpoint = baseURL
	}

	if model == "" {
		switch provider {
		case ProviderOpenAI:
			model = DefaultOpenAIModels[0]
		case ProviderGroq:
			model = DefaultGroqModels[0]
		default:
			return nil, fmt.Errorf("no default model for provider: %s", provider)
		}
	}

	// Retries are driven by the fallback chain.
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if endpoint != "" {
		opts = append(opts, option.WithBaseURL(endpoint))
	}

	return &openaiAnswerer{
		client:   openai.NewClient(opts...),
		model:    model,
		provider: provider,
	}, nil
}

// Answer sends a system + user chat completion.
func (a *openaiAnswerer) Answer(ctx context.Context, prompt Prompt) (*Answer, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if prompt.System != "" {
		messages = append(messages, openai.SystemMessage(prompt.System))
	}
	messages = append(messages, openai.UserMessage(prompt.User))

	params := openai.ChatCompletionNewParams{
		Model:    a.model,
		Messages: messages,
	}
	if prompt.Temperature > 0 {
		params.Temperature = openai.Float(prompt.Temperature)
	}
	if prompt.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(prompt.MaxTokens))
	}

	start := time.Now()
	resp, err := a.client.Chat.Completions.New(ctx, params)
	duration := time.Since(start)

	if err != nil {
		slog.WarnContext(ctx, "chat completion failed",
			"provider", a.provider,
			"model", a.model,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return nil, a.wrap(err)
	}

	if len(resp.Choices) == 0 {
		return nil, WrapError(ErrEmptyAnswer, a.provider, a.model, 0)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return nil, WrapError(ErrEmptyAnswer, a.provider, a.model, 0)
	}

	slog.DebugContext(ctx, "chat completion completed",
		"provider", a.provider,
		"model", a.model,
		"input_tokens", resp.Usage.PromptTokens,
		"output_tokens", resp.Usage.CompletionTokens,
		"duration_ms", duration.Milliseconds())

	return &Answer{
		Text:             text,
		Provider:         a.provider,
		Model:            a.model,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
	}, nil
}

// wrap attaches the HTTP status and Retry-After hint of an API error.
func (a *openaiAnswerer) wrap(err error) error {
	llmErr := &LLMError{
		Err:      fmt.Errorf("chat completion failed: %w", err),
		Provider: a.provider,
		Model:    a.model,
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		llmErr.StatusCode = apiErr.StatusCode
		if apiErr.Response != nil {
			llmErr.RetryAfter = ParseRetryAfter(apiErr.Response.Header)
		}
	}
	return llmErr
}

// Provider returns the provider type for this answerer.
func (a *openaiAnswerer) Provider() Provider {
	if a == nil {
		return ""
	}
	return a.provider
}

// Close releases resources.
func (a *openaiAnswerer) Close() error {
	return nil
}
