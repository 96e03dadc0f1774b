// Package config loads the service configuration from RMA_* environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/rmadesk/rma-qa/internal/genai"
	"github.com/rmadesk/rma-qa/internal/sliceutil"
)

// DefaultPort is the HTTP port used when RMA_PORT is unset.
const DefaultPort = "10000"

// Config holds all application configuration
type Config struct {
	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration

	// Data Configuration
	DataDir          string        // Directory holding the SQLite history database
	DatasetPath      string        // CSV / .csv.zst file or a directory of them
	AliasFile        string        // Optional YAML column alias overrides
	HistoryRetention time.Duration // History rows older than this are pruned (0 = keep forever)

	// Answer Configuration
	TopN          int // Entries in ranked answers; 1 selects the single-winner sentence
	PromptMaxRows int // Rows of table context sent to the LLM

	// LLM Configuration
	LLMProviders  []string
	LLMTimeout    time.Duration
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModels  []string
	GeminiAPIKey  string
	GeminiModels  []string
	GroqAPIKey    string
	GroqModels    []string

	// LLM Rate Limits (token bucket per client + rolling daily cap)
	LLMRateBurst  float64
	LLMRateRefill float64 // tokens per hour
	LLMDailyLimit int     // 0 = disabled

	// Observability
	BetterStackToken  string
	SentryToken       string
	SentryHost        string
	SentryEnvironment string
	SentryRelease     string
	MetricsUsername   string
	MetricsPassword   string // empty = no auth on /metrics and the dataset reload
}

// Load reads configuration from environment variables.
// It attempts to load a .env file first; a missing file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// FromEnv builds a Config from the current environment without validating it.
func FromEnv() *Config {
	return &Config{
		Port:            getEnv(EnvPort, DefaultPort),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),
		RequestTimeout:  getDurationEnv(EnvRequestTimeout, RequestProcessing),

		DataDir:          getEnv(EnvDataDir, getDefaultDataDir()),
		DatasetPath:      getEnv(EnvDatasetPath, ""),
		AliasFile:        getEnv(EnvAliasFile, ""),
		HistoryRetention: getDurationEnv(EnvHistoryRetain, 90*24*time.Hour),

		TopN:          getIntEnv(EnvTopN, 5),
		PromptMaxRows: getIntEnv(EnvPromptMaxRows, genai.DefaultPromptMaxRows),

		LLMProviders:  getListEnv(EnvLLMProviders, providerNames(genai.DefaultProviders)),
		LLMTimeout:    getDurationEnv(EnvLLMTimeout, LLMRequest),
		OpenAIAPIKey:  getEnv(EnvOpenAIAPIKey, ""),
		OpenAIBaseURL: getEnv(EnvOpenAIBaseURL, ""),
		OpenAIModels:  getListEnv(EnvOpenAIModels, nil),
		GeminiAPIKey:  getEnv(EnvGeminiAPIKey, ""),
		GeminiModels:  getListEnv(EnvGeminiModels, nil),
		GroqAPIKey:    getEnv(EnvGroqAPIKey, ""),
		GroqModels:    getListEnv(EnvGroqModels, nil),

		LLMRateBurst:  getFloatEnv(EnvLLMRateBurst, 20),
		LLMRateRefill: getFloatEnv(EnvLLMRateRefill, 30),
		LLMDailyLimit: getIntEnv(EnvLLMDailyLimit, 200),

		BetterStackToken:  getEnv(EnvBetterStackToken, ""),
		SentryToken:       getEnv(EnvSentryToken, ""),
		SentryHost:        getEnv(EnvSentryHost, ""),
		SentryEnvironment: getEnv(EnvSentryEnvironment, "production"),
		SentryRelease:     getEnv(EnvSentryRelease, ""),
		MetricsUsername:   getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword:   getEnv(EnvMetricsPassword, ""),
	}
}

// Validate checks every setting and reports all violations at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvPort))
	} else if p, err := strconv.Atoi(c.Port); err != nil || p <= 0 || p > 65535 {
		errs = append(errs, fmt.Errorf("%s must be a port number, got %q", EnvPort, c.Port))
	}
	if c.DataDir == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvDataDir))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvShutdownTimeout, c.ShutdownTimeout))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvRequestTimeout, c.RequestTimeout))
	}
	if c.HistoryRetention < 0 {
		errs = append(errs, fmt.Errorf("%s cannot be negative, got %v", EnvHistoryRetain, c.HistoryRetention))
	}
	if c.TopN < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1, got %d", EnvTopN, c.TopN))
	}
	if c.PromptMaxRows < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1, got %d", EnvPromptMaxRows, c.PromptMaxRows))
	}
	if c.LLMTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvLLMTimeout, c.LLMTimeout))
	}
	for _, name := range c.LLMProviders {
		if len(genai.ParseProviders([]string{name})) == 0 {
			errs = append(errs, fmt.Errorf("%s: unknown provider %q", EnvLLMProviders, name))
		}
	}
	if c.LLMRateBurst <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvLLMRateBurst, c.LLMRateBurst))
	}
	if c.LLMRateRefill < 0 {
		errs = append(errs, fmt.Errorf("%s cannot be negative, got %v", EnvLLMRateRefill, c.LLMRateRefill))
	}
	if c.LLMDailyLimit < 0 {
		errs = append(errs, fmt.Errorf("%s cannot be negative, got %d", EnvLLMDailyLimit, c.LLMDailyLimit))
	}
	if c.SentryToken != "" && c.SentryHost == "" {
		errs = append(errs, fmt.Errorf("%s is required when %s is set", EnvSentryHost, EnvSentryToken))
	}

	return errors.Join(errs...)
}

// LLMConfig converts the LLM settings into the genai fallback configuration.
func (c *Config) LLMConfig() genai.LLMConfig {
	cfg := genai.DefaultLLMConfig()
	if len(c.LLMProviders) > 0 {
		cfg.Providers = genai.ParseProviders(c.LLMProviders)
	}
	cfg.OpenAI = genai.ProviderConfig{APIKey: c.OpenAIAPIKey, BaseURL: c.OpenAIBaseURL, Models: c.OpenAIModels}
	cfg.Gemini = genai.ProviderConfig{APIKey: c.GeminiAPIKey, Models: c.GeminiModels}
	cfg.Groq = genai.ProviderConfig{APIKey: c.GroqAPIKey, Models: c.GroqModels}
	return cfg
}

// HasLLMProvider returns true if at least one LLM provider is configured.
func (c *Config) HasLLMProvider() bool {
	cfg := c.LLMConfig()
	return len(cfg.ConfiguredProviders()) > 0
}

// LLMRefillPerSecond converts the hourly refill setting for the rate limiter.
func (c *Config) LLMRefillPerSecond() float64 {
	return c.LLMRateRefill / 3600
}

// SQLitePath returns the full path to the question history database.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getListEnv splits a comma-separated variable, dropping blank entries.
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return sliceutil.Unique(out)
}

func providerNames(ps []genai.Provider) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.String()
	}
	return out
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}
