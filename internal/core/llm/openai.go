package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	coreerrors "github.com/lueurxax/idea-miner/internal/core/errors"
	"github.com/lueurxax/idea-miner/internal/platform/config"
)

type chatCompletionAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type openaiProvider struct {
	api          chatCompletionAPI
	available    bool
	defaultModel string
	logger       *zerolog.Logger
	rateLimiter  *rate.Limiter
}

// NewOpenAIProvider creates the primary chat provider.
func NewOpenAIProvider(cfg *config.Config, logger *zerolog.Logger) *openaiProvider {
	return newOpenAIProviderWithAPI(openai.NewClient(cfg.LLMAPIKey), cfg.LLMAPIKey != "", cfg.RateLimitRPS, logger)
}

func newOpenAIProviderWithAPI(api chatCompletionAPI, available bool, rps float64, logger *zerolog.Logger) *openaiProvider {
	if rps <= 0 {
		rps = 1
	}

	return &openaiProvider{
		api:          api,
		available:    available,
		defaultModel: defaultOpenAIModel,
		logger:       logger,
		rateLimiter:  rate.NewLimiter(rate.Limit(rps), rateLimiterBurst),
	}
}

// Name returns the provider identifier.
func (p *openaiProvider) Name() ProviderName {
	return ProviderOpenAI
}

// IsAvailable returns true if an API key is configured.
func (p *openaiProvider) IsAvailable() bool {
	return p.available
}

// Priority returns the provider priority.
func (p *openaiProvider) Priority() int {
	return PriorityPrimary
}

func (p *openaiProvider) resolveModel(model string) string {
	if model == "" {
		return p.defaultModel
	}

	return model
}

// Complete implements Provider.
func (p *openaiProvider) Complete(ctx context.Context, req Request) (Response, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return Response{}, fmt.Errorf(errRateLimiter, err)
	}

	model := p.resolveModel(req.Model)

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: req.System,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.User,
			},
		},
	}

	if req.MaxTokens > 0 {
		chatReq.MaxCompletionTokens = req.MaxTokens
	}

	if req.JSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.api.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return Response{}, fmt.Errorf(errOpenAIChatCompletion, err)
	}

	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("openai: %w", coreerrors.ErrEmptyResponse)
	}

	content := resp.Choices[0].Message.Content
	p.logger.Debug().Str(logKeyTask, string(req.Task)).Str(logKeyModel, model).Str("content", content).Msg("LLM response")

	return Response{
		Content: content,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		},
		Provider: ProviderOpenAI,
		Model:    model,
	}, nil
}

var _ Provider = (*openaiProvider)(nil)
