// Package domain holds the records shared by the ingestion queue, the idea pipeline
// and the storage layer.
package domain

import "time"

// QueueRow is one ingested complaint awaiting classification.
type QueueRow struct {
	ID         string
	Source     string
	ExternalID string
	Body       string
	Processed  bool
	IdeaID     string // empty when the row is not linked to an idea
	CreatedAt  time.Time
}

// IdeaFields are the four text fields produced by idea synthesis.
type IdeaFields struct {
	Title        string `json:"title" validate:"required,max=300"`
	Thesis       string `json:"thesis" validate:"required,max=4000"`
	TechStack    string `json:"tech_stack" validate:"required,max=2000"`
	Monetization string `json:"monetization" validate:"required,max=2000"`
}

// Idea is a persisted startup idea.
type Idea struct {
	ID string
	IdeaFields
	Embedding []float32
	CreatedAt time.Time
}

// GenerationLogEntry is the audit record written once per processed row per batch.
type GenerationLogEntry struct {
	QueueID          string
	Success          bool
	ErrorMessage     string
	PromptTokens     int
	CompletionTokens int
	CostUSD          float64
}

// NewGenerationLogEntry returns the default (failed, zero-cost) entry for a row.
func NewGenerationLogEntry(queueID string) GenerationLogEntry {
	return GenerationLogEntry{QueueID: queueID}
}

// Status is the outcome of a single batch invocation.
type Status string

const (
	StatusOK          Status = "ok"
	StatusNothingToDo Status = "nothing to do"
	StatusError       Status = "error"
)

// GenerationStats aggregates generation log entries over a time range.
type GenerationStats struct {
	Attempts         int64
	Successes        int64
	PromptTokens     int64
	CompletionTokens int64
	CostUSD          float64
}

// SuccessRate returns the share of successful attempts, or 0 when there are none.
func (s GenerationStats) SuccessRate() float64 {
	if s.Attempts == 0 {
		return 0
	}

	return float64(s.Successes) / float64(s.Attempts)
}
