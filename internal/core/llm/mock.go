package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
)

const (
	mockPromptTokens     = 42
	mockCompletionTokens = 58
)

// mockProvider answers deterministically without network access. It is registered when
// LLM_API_KEY=mock so the whole pipeline can run locally.
type mockProvider struct{}

// NewMockProvider creates a new mock LLM provider.
func NewMockProvider() *mockProvider {
	return &mockProvider{}
}

// Name returns the provider identifier.
func (p *mockProvider) Name() ProviderName {
	return ProviderMock
}

// IsAvailable returns true as mock is always available.
func (p *mockProvider) IsAvailable() bool {
	return true
}

// Priority returns the provider priority.
func (p *mockProvider) Priority() int {
	return PriorityMock
}

// Complete answers YES to solvability checks and a fixed-shape idea to synthesis requests.
func (p *mockProvider) Complete(_ context.Context, req Request) (Response, error) {
	content := "Mock response"

	switch req.Task {
	case TaskSolvability:
		content = "YES"
	case TaskSynthesis:
		h := fnv.New32a()
		_, _ = h.Write([]byte(req.User))

		//nolint:errchkjson // map of strings always marshals
		raw, _ := json.Marshal(map[string]string{
			"title":        fmt.Sprintf("Mock idea %08x", h.Sum32()),
			"thesis":       "A mock thesis for local runs.",
			"tech_stack":   "Go, PostgreSQL",
			"monetization": "Subscription",
		})
		content = string(raw)
	}

	return Response{
		Content:  content,
		Usage:    Usage{PromptTokens: mockPromptTokens, CompletionTokens: mockCompletionTokens},
		Provider: ProviderMock,
		Model:    req.Model,
	}, nil
}

var _ Provider = (*mockProvider)(nil)
