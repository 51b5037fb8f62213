package storage

import (
	"context"
	"strings"

	"github.com/lueurxax/idea-miner/internal/core/domain"
)

// FetchUnprocessedBatch returns up to limit unprocessed rows, oldest first.
func (db *DB) FetchUnprocessedBatch(ctx context.Context, limit int) ([]domain.QueueRow, error) {
	const op = "fetch unprocessed batch"

	if limit <= 0 {
		return nil, invalid(op, "limit must be positive, got %d", limit)
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT id::text, source, external_id, body, processed, COALESCE(idea_id::text, ''), created_at
		FROM ingestion_queue
		WHERE processed = false
		ORDER BY created_at, id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	batch := make([]domain.QueueRow, 0, limit)

	for rows.Next() {
		var r domain.QueueRow
		if err := rows.Scan(&r.ID, &r.Source, &r.ExternalID, &r.Body, &r.Processed, &r.IdeaID, &r.CreatedAt); err != nil {
			return nil, classify(op, err)
		}

		batch = append(batch, r)
	}

	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}

	return batch, nil
}

// MarkProcessed flags a row as processed and, when ideaID is set, links it to the idea.
// Repeating the call with the same arguments leaves the row unchanged.
func (db *DB) MarkProcessed(ctx context.Context, rowID, ideaID string) error {
	const op = "mark processed"

	if err := validateID(op, "row id", rowID); err != nil {
		return err
	}

	var idea any
	if ideaID != "" {
		if err := validateID(op, "idea id", ideaID); err != nil {
			return err
		}

		idea = ideaID
	}

	tag, err := db.Pool.Exec(ctx, `
		UPDATE ingestion_queue
		SET processed = true, idea_id = COALESCE($2::uuid, idea_id)
		WHERE id = $1::uuid
	`, rowID, idea)
	if err != nil {
		return classify(op, err)
	}

	if tag.RowsAffected() == 0 {
		return invalid(op, "queue row %s not found", rowID)
	}

	return nil
}

// EnqueueComplaint inserts a complaint into the queue. It returns false when the
// (source, external id) pair was already queued.
func (db *DB) EnqueueComplaint(ctx context.Context, source, externalID, body string) (bool, error) {
	const op = "enqueue complaint"

	source = strings.TrimSpace(source)
	externalID = strings.TrimSpace(externalID)
	body = SanitizeUTF8(strings.TrimSpace(body))

	switch {
	case source == "":
		return false, invalid(op, "source is empty")
	case externalID == "":
		return false, invalid(op, "external id is empty")
	case body == "":
		return false, invalid(op, "body is empty")
	}

	tag, err := db.Pool.Exec(ctx, `
		INSERT INTO ingestion_queue (source, external_id, body)
		VALUES ($1, $2, $3)
		ON CONFLICT (source, external_id) DO NOTHING
	`, source, externalID, body)
	if err != nil {
		return false, classify(op, err)
	}

	return tag.RowsAffected() == 1, nil
}

// BacklogCount returns the number of unprocessed rows.
func (db *DB) BacklogCount(ctx context.Context) (int64, error) {
	var n int64

	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM ingestion_queue WHERE processed = false`).Scan(&n); err != nil {
		return 0, classify("backlog count", err)
	}

	return n, nil
}
