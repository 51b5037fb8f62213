// Package ingest feeds complaints into the ingestion queue from JSONL files and
// subreddit RSS feeds. Re-ingesting the same (source, external id) pair is a no-op.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lueurxax/idea-miner/internal/platform/observability"
)

// externalIDHashLen is the number of hex characters kept when an id is derived from the body.
const externalIDHashLen = 16

// Complaint is one queue candidate.
type Complaint struct {
	ExternalID string `json:"external_id"`
	Body       string `json:"body"`
}

// Enqueuer stores complaints. It reports false for duplicates.
type Enqueuer interface {
	EnqueueComplaint(ctx context.Context, source, externalID, body string) (bool, error)
}

// Stats counts what an import did.
type Stats struct {
	Read       int
	Inserted   int
	Duplicates int
	Invalid    int
}

// DeriveExternalID gives body-only complaints a stable id so repeated imports dedupe.
func DeriveExternalID(body string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(body)))

	return "sha256:" + hex.EncodeToString(sum[:])[:externalIDHashLen]
}

// enqueueAll stores complaints one by one. Storage errors stop the import; the rows
// already stored stay stored.
func enqueueAll(ctx context.Context, enq Enqueuer, source string, items []Complaint, stats *Stats, logger *zerolog.Logger) error {
	for _, c := range items {
		if strings.TrimSpace(c.Body) == "" {
			stats.Invalid++

			continue
		}

		if c.ExternalID == "" {
			c.ExternalID = DeriveExternalID(c.Body)
		}

		inserted, err := enq.EnqueueComplaint(ctx, source, c.ExternalID, c.Body)
		if err != nil {
			return err
		}

		if !inserted {
			stats.Duplicates++

			continue
		}

		stats.Inserted++

		observability.QueueRowsIngested.WithLabelValues(source).Inc()
		logger.Debug().Str("source", source).Str("external_id", c.ExternalID).Msg("complaint queued")
	}

	return nil
}
