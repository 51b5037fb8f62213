package llm

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/lueurxax/idea-miner/internal/core/embeddings"
	"github.com/lueurxax/idea-miner/internal/platform/config"
)

// Task labels a request for routing, metrics and the mock provider.
type Task string

const (
	TaskSolvability Task = "solvability"
	TaskSynthesis   Task = "synthesis"
)

// Request is a single chat completion: one system instruction and one user message.
type Request struct {
	Task      Task
	Model     string
	System    string
	User      string
	JSON      bool // ask for a JSON object response where the provider supports it
	MaxTokens int
}

// Usage is the token accounting returned by the provider.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Total returns prompt plus completion tokens.
func (u Usage) Total() int {
	return u.PromptTokens + u.CompletionTokens
}

// Response is the free-text answer plus accounting metadata.
type Response struct {
	Content  string
	Usage    Usage
	Provider ProviderName
	Model    string
}

// Client is the generative-model surface consumed by the pipeline stages.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// registerProviders registers all configured chat providers with the registry.
func registerProviders(registry *Registry, cfg *config.Config, logger *zerolog.Logger, circuitCfg embeddings.CircuitBreakerConfig) {
	if cfg.LLMAPIKey != "" && cfg.LLMAPIKey != llmAPIKeyMock {
		registry.Register(NewOpenAIProvider(cfg, logger), circuitCfg)
	}

	if cfg.AnthropicAPIKey != "" {
		registry.Register(NewAnthropicProvider(cfg, logger), circuitCfg)
	}

	if registry.ProviderCount() == 0 {
		registry.Register(NewMockProvider(), circuitCfg)
	}
}

// New creates a chat client with OpenAI as primary and Anthropic as fallback.
// With LLM_API_KEY=mock and no Anthropic key it returns the deterministic mock provider.
func New(cfg *config.Config, logger *zerolog.Logger) *Registry {
	if logger == nil {
		nopLogger := zerolog.Nop()
		logger = &nopLogger
	}

	registry := NewRegistry(NewUsageRecorder(cfg.CostPerMillionTokensUSD), logger)
	circuitCfg := embeddings.CircuitBreakerConfig{
		Threshold:  cfg.LLMCircuitThreshold,
		ResetAfter: cfg.LLMCircuitTimeout,
	}

	registerProviders(registry, cfg, logger, circuitCfg)

	return registry
}
