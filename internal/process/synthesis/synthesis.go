// Package synthesis turns an accepted complaint into a structured startup idea.
package synthesis

import (
	"context"
	"fmt"

	"github.com/lueurxax/idea-miner/internal/core/domain"
	coreerrors "github.com/lueurxax/idea-miner/internal/core/errors"
	"github.com/lueurxax/idea-miner/internal/core/llm"
)

const systemPrompt = `You turn user complaints into concise, actionable software startup ideas.
Keep the whole idea under 120 words.
Respond with a single JSON object and nothing else. It must have exactly these string fields:
"title" (short product name), "thesis" (the problem and the solution),
"tech_stack" (main technologies), "monetization" (how it makes money).
No markdown, no prose, no extra fields.`

const userTemplate = "Complaint: %s"

// Result is a parsed idea plus the token usage of the synthesis call.
type Result struct {
	domain.IdeaFields
	PromptTokens     int
	CompletionTokens int
}

// Usage returns the token usage as an llm.Usage.
func (r Result) Usage() llm.Usage {
	return llm.Usage{PromptTokens: r.PromptTokens, CompletionTokens: r.CompletionTokens}
}

// Synthesizer asks a model for an idea and validates the answer.
type Synthesizer struct {
	client llm.Client
	model  string
	parser *Parser
}

// New creates a synthesizer using the given chat client and model.
func New(client llm.Client, model string) (*Synthesizer, error) {
	parser, err := NewParser()
	if err != nil {
		return nil, err
	}

	return &Synthesizer{client: client, model: model, parser: parser}, nil
}

// Synthesize runs one completion. Call failures wrap ErrUpstreamCallFailed, unusable answers
// wrap ErrMalformedSynthesisOutput. The usage is returned with a malformed answer too.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) (Result, error) {
	resp, err := s.client.Complete(ctx, llm.Request{
		Task:   llm.TaskSynthesis,
		Model:  s.model,
		System: systemPrompt,
		User:   fmt.Sprintf(userTemplate, text),
		JSON:   true,
	})
	if err != nil {
		if coreerrors.Is(err, coreerrors.ErrUpstreamCallFailed) {
			return Result{}, fmt.Errorf("idea synthesis: %w", err)
		}

		return Result{}, fmt.Errorf("idea synthesis: %w: %w", coreerrors.ErrUpstreamCallFailed, err)
	}

	result := Result{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}

	fields, err := s.parser.Parse(resp.Content)
	if err != nil {
		return result, fmt.Errorf("idea synthesis: %w", err)
	}

	result.IdeaFields = fields

	return result, nil
}
