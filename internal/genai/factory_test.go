package genai

import (
	"context"
	"slices"
	"testing"
)

func TestCreateAnswerer_NoProvider(t *testing.T) {
	t.Parallel()
	a, err := CreateAnswerer(context.Background(), DefaultLLMConfig(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != nil {
		t.Error("expected nil answerer without API keys")
	}
}

func TestCreateAnswerer_ChainOrder(t *testing.T) {
	t.Parallel()
	cfg := DefaultLLMConfig()
	cfg.Providers = []Provider{ProviderGroq, ProviderOpenAI}
	cfg.OpenAI.APIKey = "sk-test"
	cfg.OpenAI.BaseURL = "http://127.0.0.1:1/v1/"
	cfg.Groq.APIKey = "gsk-test"
	cfg.Groq.Models = []string{"llama-a"}

	a, err := CreateAnswerer(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a == nil {
		t.Fatal("expected an answerer")
	}
	// groq (1 model) then openai (default chain)
	if want := 1 + len(DefaultOpenAIModels); a.Len() != want {
		t.Errorf("chain length = %d, want %d", a.Len(), want)
	}
	if a.Provider() != ProviderGroq {
		t.Errorf("primary = %s, want groq", a.Provider())
	}
}

func TestLLMConfig_ConfiguredProviders(t *testing.T) {
	t.Parallel()
	cfg := DefaultLLMConfig()
	if cfg.HasAnyProvider() {
		t.Error("default config should have no provider")
	}
	cfg.Gemini.APIKey = "key"
	if !cfg.HasProvider(ProviderGemini) || cfg.HasProvider(ProviderOpenAI) {
		t.Error("HasProvider mismatch")
	}
	if got := cfg.ConfiguredProviders(); !slices.Equal(got, []Provider{ProviderGemini}) {
		t.Errorf("ConfiguredProviders() = %v", got)
	}
	if cfg.GetProviderConfig("bogus") != nil {
		t.Error("unknown provider should have no config")
	}
}

func TestParseProviders(t *testing.T) {
	t.Parallel()
	got := ParseProviders([]string{"gemini", "cerebras", "openai", "groq"})
	want := []Provider{ProviderGemini, ProviderOpenAI, ProviderGroq}
	if !slices.Equal(got, want) {
		t.Errorf("ParseProviders() = %v, want %v", got, want)
	}
	if !ProviderGroq.IsOpenAICompatible() || ProviderGemini.IsOpenAICompatible() {
		t.Error("IsOpenAICompatible mismatch")
	}
}
