package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

// geminiAnswerer answers through the Gemini API.
type geminiAnswerer struct {
	client *genai.Client
	model  string
}

// newGeminiAnswerer creates a Gemini answerer.
// Returns nil if apiKey is empty (provider disabled).
func newGeminiAnswerer(ctx context.Context, apiKey, model string) (*geminiAnswerer, error) {
	if apiKey == "" {
		return nil, nil //nolint:nilnil // Intentional: provider disabled when no API key
	}

	if model == "" {
		model = DefaultGeminiModels[0]
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &geminiAnswerer{
		client: client,
		model:  model,
	}, nil
}

// Answer generates content with the system prompt as system instruction.
func (a *geminiAnswerer) Answer(ctx context.Context, prompt Prompt) (*Answer, error) {
	config := &genai.GenerateContentConfig{}
	if prompt.System != "" {
		config.SystemInstruction = genai.NewContentFromText(prompt.System, genai.RoleUser)
	}
	if prompt.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(prompt.Temperature))
	}
	if prompt.MaxTokens > 0 {
		config.MaxOutputTokens = int32(prompt.MaxTokens)
	}

	start := time.Now()
	resp, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(prompt.User), config)
	duration := time.Since(start)

	if err != nil {
		slog.WarnContext(ctx, "generate content failed",
			"provider", ProviderGemini,
			"model", a.model,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return nil, a.wrap(err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, WrapError(ErrEmptyAnswer, ProviderGemini, a.model, 0)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return nil, WrapError(ErrEmptyAnswer, ProviderGemini, a.model, 0)
	}

	answer := &Answer{
		Text:     text,
		Provider: ProviderGemini,
		Model:    a.model,
	}
	if resp.UsageMetadata != nil {
		answer.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		answer.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		slog.DebugContext(ctx, "generate content completed",
			"provider", ProviderGemini,
			"model", a.model,
			"input_tokens", resp.UsageMetadata.PromptTokenCount,
			"output_tokens", resp.UsageMetadata.CandidatesTokenCount,
			"duration_ms", duration.Milliseconds())
	}
	return answer, nil
}

func (a *geminiAnswerer) wrap(err error) error {
	llmErr := &LLMError{
		Err:      fmt.Errorf("generate content failed: %w", err),
		Provider: ProviderGemini,
		Model:    a.model,
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		llmErr.StatusCode = apiErr.Code
	}
	return llmErr
}

// Provider returns the provider type for this answerer.
func (a *geminiAnswerer) Provider() Provider {
	return ProviderGemini
}

// Close releases resources.
// genai.Client does not require explicit cleanup in the current SDK version.
func (a *geminiAnswerer) Close() error {
	return nil
}
