package llm

import "context"

// ProviderName identifies an LLM provider.
type ProviderName string

// Provider name constants.
const (
	ProviderOpenAI    ProviderName = "openai"
	ProviderAnthropic ProviderName = "anthropic"
	ProviderMock      ProviderName = "mock"
)

// Priority constants for provider ordering.
const (
	PriorityPrimary  = 100
	PriorityFallback = 50
	PriorityMock     = 0
)

// Provider defines the interface for chat completion providers.
type Provider interface {
	// Name returns the provider identifier.
	Name() ProviderName

	// IsAvailable returns true if the provider is configured and available.
	IsAvailable() bool

	// Priority returns the provider priority (higher = preferred).
	Priority() int

	// Complete runs one chat completion.
	Complete(ctx context.Context, req Request) (Response, error)
}
