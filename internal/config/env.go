package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Server
	EnvPort            = "RMA_PORT"
	EnvLogLevel        = "RMA_LOG_LEVEL"
	EnvShutdownTimeout = "RMA_SHUTDOWN_TIMEOUT"
	EnvRequestTimeout  = "RMA_REQUEST_TIMEOUT"

	// Data
	EnvDataDir       = "RMA_DATA_DIR"
	EnvDatasetPath   = "RMA_DATASET_PATH"
	EnvAliasFile     = "RMA_ALIAS_FILE"
	EnvHistoryRetain = "RMA_HISTORY_RETENTION"

	// Answers
	EnvTopN          = "RMA_TOP_N"
	EnvPromptMaxRows = "RMA_PROMPT_MAX_ROWS"

	// LLM fallback
	EnvLLMProviders  = "RMA_LLM_PROVIDERS"
	EnvLLMTimeout    = "RMA_LLM_TIMEOUT"
	EnvOpenAIAPIKey  = "RMA_OPENAI_API_KEY"
	EnvOpenAIBaseURL = "RMA_OPENAI_BASE_URL"
	EnvOpenAIModels  = "RMA_OPENAI_MODELS"
	EnvGeminiAPIKey  = "RMA_GEMINI_API_KEY"
	EnvGeminiModels  = "RMA_GEMINI_MODELS"
	EnvGroqAPIKey    = "RMA_GROQ_API_KEY"
	EnvGroqModels    = "RMA_GROQ_MODELS"

	// LLM rate limits
	EnvLLMRateBurst  = "RMA_LLM_RATE_BURST"
	EnvLLMRateRefill = "RMA_LLM_RATE_REFILL"
	EnvLLMDailyLimit = "RMA_LLM_DAILY_LIMIT"

	// Observability
	EnvBetterStackToken  = "RMA_BETTERSTACK_TOKEN"
	EnvSentryToken       = "RMA_SENTRY_TOKEN"
	EnvSentryHost        = "RMA_SENTRY_HOST"
	EnvSentryEnvironment = "RMA_SENTRY_ENVIRONMENT"
	EnvSentryRelease     = "RMA_SENTRY_RELEASE"
	EnvMetricsUsername   = "RMA_METRICS_USERNAME"
	EnvMetricsPassword   = "RMA_METRICS_PASSWORD"
)
