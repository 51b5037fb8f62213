// Package embeddings generates vectors for idea theses so they can be searched by
// similarity downstream. Only OpenAI embedding models are wired.
package embeddings

import "context"

// DefaultDimensions matches the ideas.embedding column.
const DefaultDimensions = 1536

// Client defines the interface for embedding operations.
type Client interface {
	// GetEmbedding generates an embedding for the given text.
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
}

var _ Client = (*OpenAIClient)(nil)
