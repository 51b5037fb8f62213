package storage

import (
	"context"
	"time"

	"github.com/lueurxax/idea-miner/internal/core/domain"
)

// AppendLog writes one generation log entry. A successful row carries an empty error
// string, never NULL.
func (db *DB) AppendLog(ctx context.Context, entry domain.GenerationLogEntry) error {
	const op = "append generation log"

	if err := validateID(op, "queue id", entry.QueueID); err != nil {
		return err
	}

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO idea_generation_log (queue_id, success, error_message, prompt_tokens, completion_tokens, cost_usd)
		VALUES ($1::uuid, $2, $3, $4, $5, $6)
	`, entry.QueueID, entry.Success, SanitizeUTF8(entry.ErrorMessage), entry.PromptTokens, entry.CompletionTokens, entry.CostUSD)
	if err != nil {
		return classify(op, err)
	}

	return nil
}

// GenerationStats aggregates the generation log since the given time.
func (db *DB) GenerationStats(ctx context.Context, since time.Time) (domain.GenerationStats, error) {
	var s domain.GenerationStats

	err := db.Pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE success),
			COALESCE(SUM(prompt_tokens), 0),
			COALESCE(SUM(completion_tokens), 0),
			COALESCE(SUM(cost_usd), 0)::float8
		FROM idea_generation_log
		WHERE created_at >= $1
	`, since).Scan(&s.Attempts, &s.Successes, &s.PromptTokens, &s.CompletionTokens, &s.CostUSD)
	if err != nil {
		return domain.GenerationStats{}, classify("generation stats", err)
	}

	return s, nil
}
