package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/idea-miner/internal/core/domain"
	coreerrors "github.com/lueurxax/idea-miner/internal/core/errors"
	"github.com/lueurxax/idea-miner/internal/core/llm"
	"github.com/lueurxax/idea-miner/internal/process/filters"
	"github.com/lueurxax/idea-miner/internal/process/solvability"
	"github.com/lueurxax/idea-miner/internal/process/synthesis"
)

const testUnitPrice = 0.1

var (
	errTestDBDown   = fmt.Errorf("%w: connection refused", coreerrors.ErrStorageUnavailable)
	errTestUpstream = fmt.Errorf("%w: 429 too many requests", coreerrors.ErrUpstreamCallFailed)
	errTestEmbed    = errors.New("embedding quota exceeded")
)

// memRepo is an in-memory Repository with failure injection.
type memRepo struct {
	mu sync.Mutex

	rows  map[string]*domain.QueueRow
	order []string
	ideas map[string]domain.Idea // by title
	logs  []domain.GenerationLogEntry

	fetchErr   error
	upsertErr  error
	markErr    map[string]error // by row id
	appendErr  error
	embeddings map[string][]float32 // by title

	markCalls int
}

func newMemRepo(bodies ...string) *memRepo {
	r := &memRepo{
		rows:       make(map[string]*domain.QueueRow),
		ideas:      make(map[string]domain.Idea),
		markErr:    make(map[string]error),
		embeddings: make(map[string][]float32),
	}

	for i, body := range bodies {
		id := uuid.New().String()
		r.rows[id] = &domain.QueueRow{ID: id, Source: "test", ExternalID: fmt.Sprint(i), Body: body}
		r.order = append(r.order, id)
	}

	return r
}

func (r *memRepo) FetchUnprocessedBatch(_ context.Context, limit int) ([]domain.QueueRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fetchErr != nil {
		return nil, r.fetchErr
	}

	var out []domain.QueueRow

	for _, id := range r.order {
		if len(out) == limit {
			break
		}

		if row := r.rows[id]; !row.Processed {
			out = append(out, *row)
		}
	}

	return out, nil
}

func (r *memRepo) MarkProcessed(_ context.Context, rowID, ideaID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.markCalls++

	if err := r.markErr[rowID]; err != nil {
		return err
	}

	row, ok := r.rows[rowID]
	if !ok {
		return coreerrors.ErrConstraintViolation
	}

	row.Processed = true
	if ideaID != "" {
		row.IdeaID = ideaID
	}

	return nil
}

func (r *memRepo) UpsertIdea(_ context.Context, fields domain.IdeaFields, embedding []float32) (domain.Idea, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.upsertErr != nil {
		return domain.Idea{}, r.upsertErr
	}

	if idea, ok := r.ideas[fields.Title]; ok {
		return idea, nil
	}

	idea := domain.Idea{ID: uuid.New().String(), IdeaFields: fields, Embedding: embedding}
	r.ideas[fields.Title] = idea
	r.embeddings[fields.Title] = embedding

	return idea, nil
}

func (r *memRepo) AppendLog(_ context.Context, entry domain.GenerationLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.appendErr != nil {
		return r.appendErr
	}

	r.logs = append(r.logs, entry)

	return nil
}

func (r *memRepo) row(i int) domain.QueueRow {
	return *r.rows[r.order[i]]
}

func (r *memRepo) logFor(t *testing.T, rowID string) domain.GenerationLogEntry {
	t.Helper()

	var found []domain.GenerationLogEntry

	for _, e := range r.logs {
		if e.QueueID == rowID {
			found = append(found, e)
		}
	}

	require.Len(t, found, 1, "exactly one log entry per row")

	return found[0]
}

type mockChecker struct {
	mock.Mock
}

func (m *mockChecker) IsSoftwareSolvable(ctx context.Context, text string) (solvability.Verdict, error) {
	args := m.Called(ctx, text)

	return args.Get(0).(solvability.Verdict), args.Error(1)
}

type mockSynthesizer struct {
	mock.Mock
}

func (m *mockSynthesizer) Synthesize(ctx context.Context, text string) (synthesis.Result, error) {
	args := m.Called(ctx, text)

	return args.Get(0).(synthesis.Result), args.Error(1)
}

type mockEmbedder struct {
	mock.Mock
}

func (m *mockEmbedder) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)

	vec, _ := args.Get(0).([]float32)

	return vec, args.Error(1)
}

type panicClassifier struct{}

func (panicClassifier) Match(string) string { panic("classifier exploded") }

func newTestOrchestrator(repo Repository, checker SolvabilityChecker, synth Synthesizer, embedder Embedder) *Orchestrator {
	logger := zerolog.Nop()

	return New(repo, filters.MustNewClassifier(nil), checker, synth, embedder, Options{
		BatchSize:               100,
		CostPerMillionTokensUSD: testUnitPrice,
	}, &logger)
}

func solvable(yes bool) solvability.Verdict {
	return solvability.Verdict{Solvable: yes, Usage: llm.Usage{PromptTokens: 30, CompletionTokens: 1}}
}

func ideaResult(title string, prompt, completion int) synthesis.Result {
	return synthesis.Result{
		IdeaFields:       domain.IdeaFields{Title: title, Thesis: "Th", TechStack: "TS", Monetization: "M"},
		PromptTokens:     prompt,
		CompletionTokens: completion,
	}
}

func TestRunBatch_EndToEndThreeRows(t *testing.T) {
	repo := newMemRepo(
		"I love my coffee maker",
		"I wish there was an app for X",
		"why isn't there a tool for Y",
	)

	checker := &mockChecker{}
	checker.On("IsSoftwareSolvable", mock.Anything, "I wish there was an app for X").Return(solvable(false), nil).Once()
	checker.On("IsSoftwareSolvable", mock.Anything, "why isn't there a tool for Y").Return(solvable(true), nil).Once()

	synth := &mockSynthesizer{}
	synth.On("Synthesize", mock.Anything, "why isn't there a tool for Y").Return(ideaResult("T", 150, 50), nil).Once()

	status, err := newTestOrchestrator(repo, checker, synth, nil).RunBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOK, status)

	require.Len(t, repo.logs, 3)
	require.Len(t, repo.ideas, 1)

	a, b, c := repo.row(0), repo.row(1), repo.row(2)

	assert.True(t, a.Processed)
	assert.Empty(t, a.IdeaID)
	assert.Equal(t, domain.GenerationLogEntry{QueueID: a.ID}, repo.logFor(t, a.ID))

	assert.True(t, b.Processed)
	assert.Empty(t, b.IdeaID)
	assert.Equal(t, domain.GenerationLogEntry{QueueID: b.ID}, repo.logFor(t, b.ID))

	idea := repo.ideas["T"]
	assert.Equal(t, domain.IdeaFields{Title: "T", Thesis: "Th", TechStack: "TS", Monetization: "M"}, idea.IdeaFields)
	assert.True(t, c.Processed)
	assert.Equal(t, idea.ID, c.IdeaID)

	logC := repo.logFor(t, c.ID)
	assert.True(t, logC.Success)
	assert.Empty(t, logC.ErrorMessage)
	assert.Equal(t, 150, logC.PromptTokens)
	assert.Equal(t, 50, logC.CompletionTokens)
	assert.InDelta(t, 200.0/1_000_000*testUnitPrice, logC.CostUSD, 1e-15)

	checker.AssertExpectations(t)
	synth.AssertExpectations(t)
}

func TestRunBatch_NothingToDo(t *testing.T) {
	repo := newMemRepo()

	status, err := newTestOrchestrator(repo, &mockChecker{}, &mockSynthesizer{}, nil).RunBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNothingToDo, status)
	assert.Empty(t, repo.logs)
}

func TestRunBatch_FetchErrorAborts(t *testing.T) {
	repo := newMemRepo("I wish it worked")
	repo.fetchErr = errTestDBDown

	checker := &mockChecker{}

	status, err := newTestOrchestrator(repo, checker, &mockSynthesizer{}, nil).RunBatch(context.Background())
	require.ErrorIs(t, err, coreerrors.ErrStorageUnavailable)
	assert.Equal(t, domain.StatusError, status)
	assert.Empty(t, repo.logs)
	checker.AssertNotCalled(t, "IsSoftwareSolvable", mock.Anything, mock.Anything)
}

func TestRunBatch_ClassifierRejectSkipsModel(t *testing.T) {
	repo := newMemRepo("Lovely weather today", "", "The release ships on Friday")
	checker := &mockChecker{}
	synth := &mockSynthesizer{}

	status, err := newTestOrchestrator(repo, checker, synth, nil).RunBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOK, status)

	for i := range 3 {
		row := repo.row(i)
		assert.True(t, row.Processed)
		assert.Equal(t, domain.GenerationLogEntry{QueueID: row.ID}, repo.logFor(t, row.ID))
	}

	checker.AssertNumberOfCalls(t, "IsSoftwareSolvable", 0)
	synth.AssertNumberOfCalls(t, "Synthesize", 0)
}

func TestRunBatch_SolvabilityRejectSkipsSynthesis(t *testing.T) {
	repo := newMemRepo("I hate filing taxes", "this sucks so much")

	checker := &mockChecker{}
	checker.On("IsSoftwareSolvable", mock.Anything, mock.Anything).Return(solvable(false), nil).Times(2)

	synth := &mockSynthesizer{}

	_, err := newTestOrchestrator(repo, checker, synth, nil).RunBatch(context.Background())
	require.NoError(t, err)

	for i := range 2 {
		row := repo.row(i)
		assert.True(t, row.Processed)
		assert.Empty(t, row.IdeaID)

		entry := repo.logFor(t, row.ID)
		assert.False(t, entry.Success)
		assert.Zero(t, entry.CostUSD)
	}

	checker.AssertNumberOfCalls(t, "IsSoftwareSolvable", 2)
	synth.AssertNumberOfCalls(t, "Synthesize", 0)
}

func TestRunBatch_SolvabilityErrorLeavesRowUnprocessed(t *testing.T) {
	repo := newMemRepo("I wish there was an app for X")

	checker := &mockChecker{}
	checker.On("IsSoftwareSolvable", mock.Anything, mock.Anything).Return(solvability.Verdict{}, errTestUpstream).Once()

	synth := &mockSynthesizer{}

	status, err := newTestOrchestrator(repo, checker, synth, nil).RunBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOK, status)

	row := repo.row(0)
	assert.False(t, row.Processed)

	entry := repo.logFor(t, row.ID)
	assert.False(t, entry.Success)
	assert.Contains(t, entry.ErrorMessage, "upstream call failed")
	synth.AssertNumberOfCalls(t, "Synthesize", 0)
}

func TestRunBatch_MalformedSynthesisLeavesRowForRetry(t *testing.T) {
	repo := newMemRepo("why isn't there a tool for Y")

	checker := &mockChecker{}
	checker.On("IsSoftwareSolvable", mock.Anything, mock.Anything).Return(solvable(true), nil)

	malformed := fmt.Errorf("idea synthesis: %w: (root): monetization is required", coreerrors.ErrMalformedSynthesisOutput)

	synth := &mockSynthesizer{}
	synth.On("Synthesize", mock.Anything, mock.Anything).Return(synthesis.Result{PromptTokens: 120, CompletionTokens: 30}, malformed).Once()

	o := newTestOrchestrator(repo, checker, synth, nil)

	_, err := o.RunBatch(context.Background())
	require.NoError(t, err)

	row := repo.row(0)
	assert.False(t, row.Processed)
	assert.Empty(t, repo.ideas)

	entry := repo.logFor(t, row.ID)
	assert.False(t, entry.Success)
	assert.Contains(t, entry.ErrorMessage, coreerrors.ErrMalformedSynthesisOutput.Error())
	assert.Equal(t, 120, entry.PromptTokens)
	assert.InDelta(t, 150.0/1_000_000*testUnitPrice, entry.CostUSD, 1e-15)

	// the next batch retries the row
	synth.On("Synthesize", mock.Anything, mock.Anything).Return(ideaResult("Retry", 100, 20), nil).Once()

	_, err = o.RunBatch(context.Background())
	require.NoError(t, err)

	row = repo.row(0)
	assert.True(t, row.Processed)
	assert.Equal(t, repo.ideas["Retry"].ID, row.IdeaID)
	assert.Len(t, repo.logs, 2)
}

func TestRunBatch_UpsertFailureKeepsTokens(t *testing.T) {
	repo := newMemRepo("I wish there was an app for X")
	repo.upsertErr = fmt.Errorf("%w: null value in column title", coreerrors.ErrConstraintViolation)

	checker := &mockChecker{}
	checker.On("IsSoftwareSolvable", mock.Anything, mock.Anything).Return(solvable(true), nil)

	synth := &mockSynthesizer{}
	synth.On("Synthesize", mock.Anything, mock.Anything).Return(ideaResult("T", 150, 50), nil)

	_, err := newTestOrchestrator(repo, checker, synth, nil).RunBatch(context.Background())
	require.NoError(t, err)

	row := repo.row(0)
	assert.False(t, row.Processed)

	entry := repo.logFor(t, row.ID)
	assert.False(t, entry.Success)
	assert.Contains(t, entry.ErrorMessage, "constraint violation")
	assert.Equal(t, 150, entry.PromptTokens)
	assert.Equal(t, 50, entry.CompletionTokens)
	assert.Positive(t, entry.CostUSD)
}

func TestRunBatch_LinkFailureAfterUpsert(t *testing.T) {
	repo := newMemRepo("I wish there was an app for X")
	repo.markErr[repo.order[0]] = errTestDBDown

	checker := &mockChecker{}
	checker.On("IsSoftwareSolvable", mock.Anything, mock.Anything).Return(solvable(true), nil)

	synth := &mockSynthesizer{}
	synth.On("Synthesize", mock.Anything, mock.Anything).Return(ideaResult("T", 10, 10), nil)

	_, err := newTestOrchestrator(repo, checker, synth, nil).RunBatch(context.Background())
	require.NoError(t, err)

	row := repo.row(0)
	assert.False(t, row.Processed)
	assert.Len(t, repo.ideas, 1, "idea stays without a linking row")

	entry := repo.logFor(t, row.ID)
	assert.False(t, entry.Success)
	assert.Contains(t, entry.ErrorMessage, "storage unavailable")
}

func TestRunBatch_RejectMarkFailureIsRecorded(t *testing.T) {
	repo := newMemRepo("nothing to see here")
	repo.markErr[repo.order[0]] = errTestDBDown

	_, err := newTestOrchestrator(repo, &mockChecker{}, &mockSynthesizer{}, nil).RunBatch(context.Background())
	require.NoError(t, err)

	row := repo.row(0)
	assert.False(t, row.Processed)
	assert.Contains(t, repo.logFor(t, row.ID).ErrorMessage, "storage unavailable")
}

func TestRunBatch_OneLogEntryPerRowWhateverTheExit(t *testing.T) {
	repo := newMemRepo(
		"plain text",                  // classifier reject
		"I hate my calendar",          // solvability NO
		"I wish invoices were easier", // solvability error
		"why isn't there a CRM",       // malformed synthesis
		"I want a better bank",        // success
	)

	checker := &mockChecker{}
	checker.On("IsSoftwareSolvable", mock.Anything, "I hate my calendar").Return(solvable(false), nil)
	checker.On("IsSoftwareSolvable", mock.Anything, "I wish invoices were easier").Return(solvability.Verdict{}, errTestUpstream)
	checker.On("IsSoftwareSolvable", mock.Anything, mock.Anything).Return(solvable(true), nil)

	synth := &mockSynthesizer{}
	synth.On("Synthesize", mock.Anything, "why isn't there a CRM").Return(synthesis.Result{}, coreerrors.ErrMalformedSynthesisOutput)
	synth.On("Synthesize", mock.Anything, "I want a better bank").Return(ideaResult("Bank", 1, 1), nil)

	status, report, err := newTestOrchestrator(repo, checker, synth, nil).RunBatchWithReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOK, status)

	assert.Len(t, repo.logs, 5)

	for _, id := range repo.order {
		repo.logFor(t, id)
	}

	assert.Equal(t, 5, report.Rows)
	assert.Equal(t, 1, report.Outcomes[OutcomeClassifierReject])
	assert.Equal(t, 1, report.Outcomes[OutcomeSolvabilityReject])
	assert.Equal(t, 1, report.Outcomes[OutcomeSolvabilityError])
	assert.Equal(t, 1, report.Outcomes[OutcomeSynthesisError])
	assert.Equal(t, 1, report.Successes())

	// Three answered solvability calls at 30+1 tokens; the failed one reports none.
	assert.Equal(t, 93, report.ScreeningTokens)
	assert.Equal(t, 1, repo.logFor(t, repo.order[4]).PromptTokens)
}

func TestRunBatch_PanicStillLogs(t *testing.T) {
	repo := newMemRepo("first", "second")
	logger := zerolog.Nop()

	o := New(repo, panicClassifier{}, &mockChecker{}, &mockSynthesizer{}, nil, Options{BatchSize: 10}, &logger)

	status, report, err := o.RunBatchWithReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOK, status)
	assert.Equal(t, 2, report.Outcomes[OutcomePanic])

	for _, id := range repo.order {
		entry := repo.logFor(t, id)
		assert.False(t, entry.Success)
		assert.Contains(t, entry.ErrorMessage, "classifier exploded")
	}
}

func TestRunBatch_AppendFailureDoesNotAbort(t *testing.T) {
	repo := newMemRepo("nope", "still nope")
	repo.appendErr = errTestDBDown

	status, report, err := newTestOrchestrator(repo, &mockChecker{}, &mockSynthesizer{}, nil).RunBatchWithReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOK, status)
	assert.Equal(t, 2, report.Rows)
	assert.True(t, repo.row(1).Processed)
}

func TestRunBatch_RespectsBatchSize(t *testing.T) {
	repo := newMemRepo("a", "b", "c")
	logger := zerolog.Nop()

	o := New(repo, filters.MustNewClassifier(nil), &mockChecker{}, &mockSynthesizer{}, nil, Options{BatchSize: 2}, &logger)

	_, err := o.RunBatch(context.Background())
	require.NoError(t, err)
	assert.Len(t, repo.logs, 2)
	assert.False(t, repo.row(2).Processed)

	status, err := o.RunBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOK, status)

	status, err = o.RunBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNothingToDo, status)
}

func TestRunBatch_CancellationStopsBetweenRows(t *testing.T) {
	repo := newMemRepo("I wish one", "I wish two", "I wish three")
	ctx, cancel := context.WithCancel(context.Background())

	checker := &mockChecker{}
	checker.On("IsSoftwareSolvable", mock.Anything, "I wish one").
		Run(func(mock.Arguments) { cancel() }).
		Return(solvable(false), nil).Once()

	status, report, err := newTestOrchestrator(repo, checker, &mockSynthesizer{}, nil).RunBatchWithReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOK, status)
	assert.Equal(t, 1, report.Rows)
	assert.Equal(t, 2, report.Skipped)

	assert.Len(t, repo.logs, 1)
	assert.False(t, repo.row(1).Processed)
	assert.False(t, repo.row(2).Processed)
	checker.AssertNumberOfCalls(t, "IsSoftwareSolvable", 1)
}

func TestRunBatch_Embedding(t *testing.T) {
	repo := newMemRepo("I wish A existed", "I wish B existed")

	checker := &mockChecker{}
	checker.On("IsSoftwareSolvable", mock.Anything, mock.Anything).Return(solvable(true), nil)

	synth := &mockSynthesizer{}
	synth.On("Synthesize", mock.Anything, "I wish A existed").Return(ideaResult("A", 1, 1), nil)
	synth.On("Synthesize", mock.Anything, "I wish B existed").Return(synthesis.Result{
		IdeaFields: domain.IdeaFields{Title: "B", Thesis: "broken", TechStack: "TS", Monetization: "M"},
	}, nil)

	embedder := &mockEmbedder{}
	embedder.On("GetEmbedding", mock.Anything, "Th").Return([]float32{0.5, 0.25}, nil).Once()
	embedder.On("GetEmbedding", mock.Anything, "broken").Return(nil, errTestEmbed).Once()

	_, err := newTestOrchestrator(repo, checker, synth, embedder).RunBatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []float32{0.5, 0.25}, repo.embeddings["A"])
	assert.Nil(t, repo.embeddings["B"])
	assert.True(t, repo.logFor(t, repo.order[1]).Success, "embedding failure is not a row failure")
	embedder.AssertExpectations(t)
}

func TestRunBatch_SameTitleKeepsFirstIdea(t *testing.T) {
	repo := newMemRepo("I wish X", "I wish X too")

	checker := &mockChecker{}
	checker.On("IsSoftwareSolvable", mock.Anything, mock.Anything).Return(solvable(true), nil)

	first := ideaResult("Same", 1, 1)
	first.Thesis = "first thesis"
	second := ideaResult("Same", 1, 1)
	second.Thesis = "second thesis"

	synth := &mockSynthesizer{}
	synth.On("Synthesize", mock.Anything, "I wish X").Return(first, nil).Once()
	synth.On("Synthesize", mock.Anything, "I wish X too").Return(second, nil).Once()

	_, err := newTestOrchestrator(repo, checker, synth, nil).RunBatch(context.Background())
	require.NoError(t, err)

	require.Len(t, repo.ideas, 1)
	assert.Equal(t, repo.row(0).IdeaID, repo.row(1).IdeaID)
	assert.Equal(t, "first thesis", repo.ideas["Same"].Thesis)
	assert.True(t, repo.row(1).Processed)
}
