package embeddings

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	coreerrors "github.com/lueurxax/idea-miner/internal/core/errors"
	"github.com/lueurxax/idea-miner/internal/platform/observability"
)

// OpenAI model constants.
const (
	ModelTextEmbedding3Large = "text-embedding-3-large"
	ModelTextEmbedding3Small = "text-embedding-3-small"

	openaiRateLimiterBurst = 5
	statusSuccess          = "success"
	statusError            = "error"
)

// ErrOpenAIEmptyResponse is returned when the API answers without any vector.
var ErrOpenAIEmptyResponse = errors.New("empty embedding response from OpenAI")

// ErrDimensionMismatch is returned when the vector size differs from the configured size.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

type embeddingAPI interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// OpenAIConfig holds configuration for the OpenAI embedding client.
type OpenAIConfig struct {
	APIKey     string
	Model      string
	Dimensions int
	RateLimit  float64 // requests per second
	Circuit    CircuitBreakerConfig
}

// OpenAIClient implements Client using the OpenAI embeddings endpoint.
type OpenAIClient struct {
	api         embeddingAPI
	model       string
	dimensions  int
	rateLimiter *rate.Limiter
	breaker     *CircuitBreaker
}

// NewOpenAI creates a new OpenAI embedding client.
func NewOpenAI(cfg OpenAIConfig, logger *zerolog.Logger) *OpenAIClient {
	return newOpenAIWithAPI(openai.NewClient(cfg.APIKey), cfg, logger)
}

func newOpenAIWithAPI(api embeddingAPI, cfg OpenAIConfig, logger *zerolog.Logger) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = ModelTextEmbedding3Small
	}

	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}

	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 1
	}

	return &OpenAIClient{
		api:         api,
		model:       cfg.Model,
		dimensions:  cfg.Dimensions,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), openaiRateLimiterBurst),
		breaker:     NewCircuitBreaker("openai-embeddings", cfg.Circuit, logger),
	}
}

// GetEmbedding generates an embedding for the given text.
func (c *OpenAIClient) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	if err := c.breaker.CheckCircuit(); err != nil {
		return nil, fmt.Errorf("%w: %w", coreerrors.ErrUpstreamCallFailed, err)
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.model),
	}

	// text-embedding-3 models accept a reduced output size.
	if c.dimensions != DefaultDimensions || c.model == ModelTextEmbedding3Large {
		req.Dimensions = c.dimensions
	}

	resp, err := c.api.CreateEmbeddings(ctx, req)
	if err != nil {
		c.breaker.RecordFailure()
		observability.EmbeddingRequests.WithLabelValues(statusError).Inc()

		return nil, fmt.Errorf("%w: openai embeddings: %w", coreerrors.ErrUpstreamCallFailed, err)
	}

	c.breaker.RecordSuccess()

	if len(resp.Data) == 0 {
		observability.EmbeddingRequests.WithLabelValues(statusError).Inc()

		return nil, ErrOpenAIEmptyResponse
	}

	vector := resp.Data[0].Embedding
	if len(vector) != c.dimensions {
		observability.EmbeddingRequests.WithLabelValues(statusError).Inc()

		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), c.dimensions)
	}

	observability.EmbeddingRequests.WithLabelValues(statusSuccess).Inc()

	return vector, nil
}
