package llm

// Error message templates
const (
	errRateLimiter          = "rate limiter error: %w"
	errOpenAIChatCompletion = "openai chat completion: %w"
	errAnthropicMessages    = "anthropic messages: %w"
)

// Model mapping strings
const (
	modelPrefixClaude = "claude"
	llmAPIKeyMock     = "mock"
)

// Log key strings
const (
	logKeyProvider = "provider"
	logKeyTask     = "task"
	logKeyModel    = "model"
)

// Metric label values
const (
	StatusSuccess = "success"
	StatusError   = "error"

	MetricValueAvailable   = 1.0
	MetricValueUnavailable = 0.0
)

// Provider defaults
const (
	rateLimiterBurst          = 5
	defaultOpenAIModel        = "gpt-4.1-mini"
	defaultAnthropicModel     = "claude-haiku-4-5"
	anthropicMaxTokensDefault = 1024
	contentTypeText           = "text"
)
