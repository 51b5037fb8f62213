package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// maxLineBytes bounds a single JSONL record.
const maxLineBytes = 1 << 20

// ImportJSONL reads one {"external_id","body"} object per line and queues it under source.
// Blank lines are ignored; undecodable lines are counted as invalid and skipped.
func ImportJSONL(ctx context.Context, r io.Reader, source string, enq Enqueuer, logger *zerolog.Logger) (Stats, error) {
	var stats Stats

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineBytes)

	line := 0

	for scanner.Scan() {
		line++

		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		stats.Read++

		var c Complaint
		if err := json.Unmarshal(raw, &c); err != nil {
			stats.Invalid++

			logger.Warn().Err(err).Int("line", line).Msg("skipping undecodable JSONL record")

			continue
		}

		if err := enqueueAll(ctx, enq, source, []Complaint{c}, &stats, logger); err != nil {
			return stats, fmt.Errorf("line %d: %w", line, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("read JSONL: %w", err)
	}

	return stats, nil
}
