package synthesis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/idea-miner/internal/core/domain"
	coreerrors "github.com/lueurxax/idea-miner/internal/core/errors"
	"github.com/lueurxax/idea-miner/internal/core/llm"
)

const validIdea = `{"title":"Invoice Pilot","thesis":"Freelancers chase late invoices by hand. Automate reminders.","tech_stack":"Go, Postgres","monetization":"Monthly subscription"}`

var errTestRefused = errors.New("503 service unavailable")

type mockClient struct {
	mock.Mock
}

func (m *mockClient) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	args := m.Called(ctx, req)

	return args.Get(0).(llm.Response), args.Error(1)
}

func newTestParser(t *testing.T) *Parser {
	t.Helper()

	p, err := NewParser()
	require.NoError(t, err)

	return p
}

func TestParse_Valid(t *testing.T) {
	fields, err := newTestParser(t).Parse(validIdea)
	require.NoError(t, err)

	assert.Equal(t, domain.IdeaFields{
		Title:        "Invoice Pilot",
		Thesis:       "Freelancers chase late invoices by hand. Automate reminders.",
		TechStack:    "Go, Postgres",
		Monetization: "Monthly subscription",
	}, fields)
}

func TestParse_Fenced(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"json fence", "```json\n" + validIdea + "\n```"},
		{"bare fence", "```\n" + validIdea + "\n```"},
		{"single line fence", "```" + validIdea + "```"},
		{"surrounding whitespace", "\n\n  ```json\n" + validIdea + "\n```  \n"},
	}

	p := newTestParser(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, err := p.Parse(tt.content)
			require.NoError(t, err)
			assert.Equal(t, "Invoice Pilot", fields.Title)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
		reason  string
	}{
		{"empty", "", "empty response"},
		{"prose wrapped", "Here is your idea: " + validIdea, ""},
		{"prose after fence", "```json\n" + validIdea + "\n```\nHope this helps!", ""},
		{"not json", "Sorry, I can't help with that.", ""},
		{"array", `[` + validIdea + `]`, "(root)"},
		{"missing field", `{"title":"A","thesis":"B","tech_stack":"C"}`, "monetization"},
		{"extra field", `{"title":"A","thesis":"B","tech_stack":"C","monetization":"D","market":"E"}`, "market"},
		{"non-string field", `{"title":"A","thesis":"B","tech_stack":["Go"],"monetization":"D"}`, "tech_stack"},
		{"blank title", `{"title":"   ","thesis":"B","tech_stack":"C","monetization":"D"}`, "Title"},
		{"title too long", `{"title":"` + strings.Repeat("x", 301) + `","thesis":"B","tech_stack":"C","monetization":"D"}`, "Title"},
	}

	p := newTestParser(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse(tt.content)
			require.Error(t, err)
			assert.ErrorIs(t, err, coreerrors.ErrMalformedSynthesisOutput)
			assert.Contains(t, err.Error(), "malformed synthesis output")

			if tt.reason != "" {
				assert.Contains(t, err.Error(), tt.reason)
			}
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence(`  {"a":1}  `))
	assert.Equal(t, "```", StripCodeFence("```"))
}

func TestSynthesize_Success(t *testing.T) {
	client := &mockClient{}
	client.On("Complete", mock.Anything, mock.MatchedBy(func(req llm.Request) bool {
		return req.Task == llm.TaskSynthesis &&
			req.Model == "gpt-4.1-mini" &&
			req.JSON &&
			strings.Contains(req.System, "120 words") &&
			strings.Contains(req.User, "I wish there was an app for invoices")
	})).Return(llm.Response{
		Content: validIdea,
		Usage:   llm.Usage{PromptTokens: 150, CompletionTokens: 50},
	}, nil).Once()

	s, err := New(client, "gpt-4.1-mini")
	require.NoError(t, err)

	res, err := s.Synthesize(context.Background(), "I wish there was an app for invoices")
	require.NoError(t, err)

	assert.Equal(t, "Invoice Pilot", res.Title)
	assert.Equal(t, 150, res.PromptTokens)
	assert.Equal(t, 50, res.CompletionTokens)
	assert.InDelta(t, 0.00002, res.Usage().Cost(0.1), 1e-12)
	client.AssertExpectations(t)
}

func TestSynthesize_MalformedKeepsUsage(t *testing.T) {
	client := &mockClient{}
	client.On("Complete", mock.Anything, mock.Anything).Return(llm.Response{
		Content: "Here you go: " + validIdea,
		Usage:   llm.Usage{PromptTokens: 100, CompletionTokens: 40},
	}, nil).Once()

	s, err := New(client, "m")
	require.NoError(t, err)

	res, err := s.Synthesize(context.Background(), "x")
	require.ErrorIs(t, err, coreerrors.ErrMalformedSynthesisOutput)
	assert.NotErrorIs(t, err, coreerrors.ErrUpstreamCallFailed)
	assert.Equal(t, 100, res.PromptTokens)
	assert.Equal(t, 40, res.CompletionTokens)
}

func TestSynthesize_UpstreamFailure(t *testing.T) {
	client := &mockClient{}
	client.On("Complete", mock.Anything, mock.Anything).Return(llm.Response{}, errTestRefused).Once()

	s, err := New(client, "m")
	require.NoError(t, err)

	_, err = s.Synthesize(context.Background(), "x")
	require.ErrorIs(t, err, coreerrors.ErrUpstreamCallFailed)
	assert.ErrorIs(t, err, errTestRefused)
	assert.NotErrorIs(t, err, coreerrors.ErrMalformedSynthesisOutput)
}
