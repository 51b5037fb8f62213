package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lueurxax/idea-miner/internal/core/domain"
	"github.com/lueurxax/idea-miner/internal/core/llm"
	"github.com/lueurxax/idea-miner/internal/platform/observability"
)

// ErrRowPanicked wraps a panic recovered while processing a row.
var ErrRowPanicked = errors.New("row processing panicked")

// processRow runs the stages for one row. The log entry is appended in a deferred block
// so every exit, a panic included, produces exactly one entry. screening is the
// solvability call's usage, which the log entry does not carry.
func (o *Orchestrator) processRow(ctx context.Context, batchLogger *zerolog.Logger, row domain.QueueRow) (outcome Outcome, entry domain.GenerationLogEntry, screening llm.Usage) {
	logger := batchLogger.With().Str(LogFieldRowID, row.ID).Logger()
	entry = domain.NewGenerationLogEntry(row.ID)

	defer func() {
		if r := recover(); r != nil {
			outcome = OutcomePanic
			entry.Success = false
			entry.ErrorMessage = fmt.Sprintf("%v: %v", ErrRowPanicked, r)

			logger.Error().Interface("panic", r).Msg("recovered from panic while processing row")
		}

		observability.PipelineRows.WithLabelValues(string(outcome)).Inc()
		logger.Debug().Str(LogFieldOutcome, string(outcome)).Msg("row finished")
		o.appendLog(ctx, &logger, entry)
	}()

	outcome = o.runStages(ctx, &logger, row, &entry, &screening)

	return outcome, entry, screening
}

func (o *Orchestrator) runStages(ctx context.Context, logger *zerolog.Logger, row domain.QueueRow, entry *domain.GenerationLogEntry, screening *llm.Usage) Outcome {
	pattern := o.classifier.Match(row.Body)
	if pattern == "" {
		logger.Debug().Msg("not a complaint")

		return o.reject(ctx, logger, row, entry, OutcomeClassifierReject)
	}

	logger.Debug().Str("pattern", pattern).Msg("complaint pattern matched")

	verdict, err := o.solvability.IsSoftwareSolvable(ctx, row.Body)
	*screening = verdict.Usage

	if err != nil {
		logger.Warn().Err(err).Msg("solvability check failed")

		entry.ErrorMessage = err.Error()

		return OutcomeSolvabilityError
	}

	if !verdict.Solvable {
		logger.Debug().Msg("not software-solvable")

		return o.reject(ctx, logger, row, entry, OutcomeSolvabilityReject)
	}

	result, err := o.synthesizer.Synthesize(ctx, row.Body)

	entry.PromptTokens = result.PromptTokens
	entry.CompletionTokens = result.CompletionTokens
	entry.CostUSD = llm.CostUSD(result.PromptTokens, result.CompletionTokens, o.opts.CostPerMillionTokensUSD)

	if err != nil {
		logger.Warn().Err(err).Msg("idea synthesis failed, row left for retry")

		entry.ErrorMessage = err.Error()

		return OutcomeSynthesisError
	}

	idea, err := o.persist(ctx, logger, row, result.IdeaFields)
	if err != nil {
		logger.Error().Err(err).Msg("failed to persist idea")

		entry.ErrorMessage = err.Error()

		return OutcomePersistError
	}

	entry.Success = true

	logger.Info().Str(LogFieldIdeaID, idea.ID).Str("title", idea.Title).Msg("idea generated")

	return OutcomeSuccess
}

// reject marks a row processed without an idea. A failed update becomes the row's error.
func (o *Orchestrator) reject(ctx context.Context, logger *zerolog.Logger, row domain.QueueRow, entry *domain.GenerationLogEntry, outcome Outcome) Outcome {
	if err := o.repo.MarkProcessed(ctx, row.ID, ""); err != nil {
		logger.Error().Err(err).Msg("failed to mark rejected row as processed")

		entry.ErrorMessage = err.Error()

		return OutcomePersistError
	}

	return outcome
}

// persist upserts the idea and links the row to it. A failure between the two steps
// leaves an idea without a linking row; retrying the row re-upserts the same title.
func (o *Orchestrator) persist(ctx context.Context, logger *zerolog.Logger, row domain.QueueRow, fields domain.IdeaFields) (domain.Idea, error) {
	embedding := o.embed(ctx, logger, fields.Thesis)

	idea, err := o.repo.UpsertIdea(ctx, fields, embedding)
	if err != nil {
		return domain.Idea{}, fmt.Errorf("upsert idea: %w", err)
	}

	observability.IdeasPersisted.Inc()

	if err := o.repo.MarkProcessed(ctx, row.ID, idea.ID); err != nil {
		return domain.Idea{}, fmt.Errorf("link row to idea %s: %w", idea.ID, err)
	}

	return idea, nil
}

// embed returns nil when no embedder is configured or the call fails.
func (o *Orchestrator) embed(ctx context.Context, logger *zerolog.Logger, thesis string) []float32 {
	if o.embedder == nil {
		return nil
	}

	vec, err := o.embedder.GetEmbedding(ctx, thesis)
	if err != nil {
		logger.Warn().Err(err).Msg("thesis embedding failed, storing idea without vector")

		return nil
	}

	return vec
}

// appendLog never fails the batch. It runs detached from ctx so a cancellation that
// arrives mid-row still leaves the row's entry behind.
func (o *Orchestrator) appendLog(ctx context.Context, logger *zerolog.Logger, entry domain.GenerationLogEntry) {
	if err := o.repo.AppendLog(context.WithoutCancel(ctx), entry); err != nil {
		observability.GenerationLogFailures.Inc()
		logger.Error().Err(err).Bool("success", entry.Success).Msg("failed to append generation log entry")
	}
}
