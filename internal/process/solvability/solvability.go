// Package solvability asks a model whether a complaint could be solved with software.
package solvability

import (
	"context"
	"fmt"
	"strings"

	coreerrors "github.com/lueurxax/idea-miner/internal/core/errors"
	"github.com/lueurxax/idea-miner/internal/core/llm"
)

const (
	systemPrompt = "You are a technical advisor. Respond with only YES or NO."
	userTemplate = "Could this complaint be solved with software? Complaint: %s"

	affirmative = "YES"

	// A bare YES/NO answer never needs more than a handful of tokens.
	maxAnswerTokens = 5
)

// Verdict is the filter's answer plus the token usage of the call.
type Verdict struct {
	Solvable bool
	Usage    llm.Usage
}

// Filter runs the closed YES/NO solvability question.
type Filter struct {
	client llm.Client
	model  string
}

// New creates a solvability filter using the given chat client and model.
func New(client llm.Client, model string) *Filter {
	return &Filter{client: client, model: model}
}

// IsSoftwareSolvable returns true only when the model's answer contains YES.
// Empty, refused or otherwise unexpected answers are a negative verdict, not an error.
func (f *Filter) IsSoftwareSolvable(ctx context.Context, text string) (Verdict, error) {
	resp, err := f.client.Complete(ctx, llm.Request{
		Task:      llm.TaskSolvability,
		Model:     f.model,
		System:    systemPrompt,
		User:      fmt.Sprintf(userTemplate, text),
		MaxTokens: maxAnswerTokens,
	})
	if err != nil {
		return Verdict{}, wrapUpstream(err)
	}

	return Verdict{
		Solvable: Interpret(resp.Content),
		Usage:    resp.Usage,
	}, nil
}

// Interpret maps a raw answer onto the verdict.
func Interpret(answer string) bool {
	return strings.Contains(strings.ToUpper(strings.TrimSpace(answer)), affirmative)
}

func wrapUpstream(err error) error {
	if coreerrors.Is(err, coreerrors.ErrUpstreamCallFailed) {
		return fmt.Errorf("solvability check: %w", err)
	}

	return fmt.Errorf("solvability check: %w: %w", coreerrors.ErrUpstreamCallFailed, err)
}
