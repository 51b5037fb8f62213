// Package pipeline runs one batch of queued complaints through the idea stages.
//
// Each row walks classifier → solvability → synthesis → persistence and ends with
// exactly one generation log entry. Rejections mark the row processed so it is never
// reconsidered; synthesis and persistence failures leave it unprocessed for a later batch.
// Row failures never abort the batch. Only the initial fetch can.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lueurxax/idea-miner/internal/core/domain"
	"github.com/lueurxax/idea-miner/internal/platform/observability"
	"github.com/lueurxax/idea-miner/internal/process/solvability"
	"github.com/lueurxax/idea-miner/internal/process/synthesis"
	"github.com/lueurxax/idea-miner/internal/storage"
)

// Repository is the persistence surface the orchestrator needs.
type Repository interface {
	FetchUnprocessedBatch(ctx context.Context, limit int) ([]domain.QueueRow, error)
	MarkProcessed(ctx context.Context, rowID, ideaID string) error
	UpsertIdea(ctx context.Context, fields domain.IdeaFields, embedding []float32) (domain.Idea, error)
	AppendLog(ctx context.Context, entry domain.GenerationLogEntry) error
}

// Compile-time assertion that *storage.DB implements Repository.
var _ Repository = (*storage.DB)(nil)

// Classifier is the cheap first-pass complaint filter. Match returns the pattern that
// accepted text, or "" for a reject.
type Classifier interface {
	Match(text string) string
}

// SolvabilityChecker answers whether software could solve a complaint.
type SolvabilityChecker interface {
	IsSoftwareSolvable(ctx context.Context, text string) (solvability.Verdict, error)
}

// Synthesizer produces a structured idea from a complaint.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (synthesis.Result, error)
}

// Embedder turns an idea thesis into a vector. Optional.
type Embedder interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Options configures an Orchestrator.
type Options struct {
	BatchSize               int
	CostPerMillionTokensUSD float64
}

// Orchestrator processes batches of queue rows.
type Orchestrator struct {
	repo        Repository
	classifier  Classifier
	solvability SolvabilityChecker
	synthesizer Synthesizer
	embedder    Embedder
	opts        Options
	logger      *zerolog.Logger
}

// New creates an orchestrator. embedder may be nil.
func New(repo Repository, classifier Classifier, checker SolvabilityChecker, synth Synthesizer, embedder Embedder, opts Options, logger *zerolog.Logger) *Orchestrator {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Orchestrator{
		repo:        repo,
		classifier:  classifier,
		solvability: checker,
		synthesizer: synth,
		embedder:    embedder,
		opts:        opts,
		logger:      logger,
	}
}

// RunBatch processes up to BatchSize unprocessed rows sequentially.
// It returns StatusError with the cause only when the batch cannot be fetched.
func (o *Orchestrator) RunBatch(ctx context.Context) (domain.Status, error) {
	status, _, err := o.RunBatchWithReport(ctx)

	return status, err
}

// RunBatchWithReport is RunBatch that also returns the per-outcome counts.
func (o *Orchestrator) RunBatchWithReport(ctx context.Context) (domain.Status, BatchReport, error) {
	correlationID := uuid.New().String()
	logger := o.logger.With().Str(LogFieldCorrelationID, correlationID).Logger()
	started := time.Now()

	status, report, err := o.runBatch(ctx, &logger)

	report.Duration = time.Since(started)
	observability.PipelineBatches.WithLabelValues(string(status)).Inc()
	logger.Debug().Str(LogFieldStatus, string(status)).Msg("batch finished")

	if status == domain.StatusOK {
		observability.PipelineBatchDurationSeconds.Observe(report.Duration.Seconds())
		report.Log(&logger)
	}

	return status, report, err
}

func (o *Orchestrator) runBatch(ctx context.Context, logger *zerolog.Logger) (domain.Status, BatchReport, error) {
	report := newBatchReport()

	rows, err := o.repo.FetchUnprocessedBatch(ctx, o.opts.BatchSize)
	if err != nil {
		logger.Error().Err(err).Msg("failed to fetch unprocessed batch")

		return domain.StatusError, report, fmt.Errorf("fetch unprocessed batch: %w", err)
	}

	if len(rows) == 0 {
		logger.Debug().Msg("queue is empty")

		return domain.StatusNothingToDo, report, nil
	}

	logger.Info().Int(LogFieldCount, len(rows)).Msg("starting batch")

	for i, row := range rows {
		if ctx.Err() != nil {
			report.Skipped = len(rows) - i

			logger.Warn().Err(ctx.Err()).Int("remaining", report.Skipped).Msg("batch interrupted, remaining rows left for the next run")

			break
		}

		outcome, entry, screening := o.processRow(ctx, logger, row)
		report.add(outcome, entry, screening)
	}

	return domain.StatusOK, report, nil
}
