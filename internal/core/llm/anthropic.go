package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	coreerrors "github.com/lueurxax/idea-miner/internal/core/errors"
	"github.com/lueurxax/idea-miner/internal/platform/config"
)

type messagesAPI interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// anthropicProvider implements the Provider interface for Anthropic Claude.
type anthropicProvider struct {
	api          messagesAPI
	available    bool
	defaultModel string
	logger       *zerolog.Logger
	rateLimiter  *rate.Limiter
}

// NewAnthropicProvider creates the fallback chat provider.
func NewAnthropicProvider(cfg *config.Config, logger *zerolog.Logger) *anthropicProvider {
	client := anthropic.NewClient(option.WithAPIKey(cfg.AnthropicAPIKey))

	p := newAnthropicProviderWithAPI(&client.Messages, cfg.AnthropicAPIKey != "", cfg.RateLimitRPS, logger)
	if cfg.AnthropicModel != "" {
		p.defaultModel = cfg.AnthropicModel
	}

	return p
}

func newAnthropicProviderWithAPI(api messagesAPI, available bool, rps float64, logger *zerolog.Logger) *anthropicProvider {
	if rps <= 0 {
		rps = 1
	}

	return &anthropicProvider{
		api:          api,
		available:    available,
		defaultModel: defaultAnthropicModel,
		logger:       logger,
		rateLimiter:  rate.NewLimiter(rate.Limit(rps), rateLimiterBurst),
	}
}

// Name returns the provider identifier.
func (p *anthropicProvider) Name() ProviderName {
	return ProviderAnthropic
}

// IsAvailable returns true if the provider is configured and available.
func (p *anthropicProvider) IsAvailable() bool {
	return p.available
}

// Priority returns the provider priority.
func (p *anthropicProvider) Priority() int {
	return PriorityFallback
}

// resolveModel maps OpenAI model names onto the configured Claude model.
func (p *anthropicProvider) resolveModel(model string) string {
	if strings.HasPrefix(model, modelPrefixClaude) {
		return model
	}

	return p.defaultModel
}

// Complete implements Provider.
func (p *anthropicProvider) Complete(ctx context.Context, req Request) (Response, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return Response{}, fmt.Errorf(errRateLimiter, err)
	}

	model := p.resolveModel(req.Model)

	maxTokens := int64(anthropicMaxTokensDefault)
	if req.MaxTokens > 0 {
		maxTokens = int64(req.MaxTokens)
	}

	system := req.System
	if req.JSON {
		system += " Output the JSON object only."
	}

	resp, err := p.api.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
	})
	if err != nil {
		return Response{}, fmt.Errorf(errAnthropicMessages, err)
	}

	if len(resp.Content) == 0 {
		return Response{}, fmt.Errorf("anthropic: %w", coreerrors.ErrEmptyResponse)
	}

	return Response{
		Content: strings.TrimSpace(extractTextFromResponse(resp)),
		Usage: Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
		},
		Provider: ProviderAnthropic,
		Model:    model,
	}, nil
}

// extractTextFromResponse concatenates the text blocks of a response.
func extractTextFromResponse(resp *anthropic.Message) string {
	var result strings.Builder

	for _, block := range resp.Content {
		if block.Type == contentTypeText {
			result.WriteString(block.Text)
		}
	}

	return result.String()
}

var _ Provider = (*anthropicProvider)(nil)
