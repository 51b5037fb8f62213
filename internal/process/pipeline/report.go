package pipeline

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/idea-miner/internal/core/domain"
	"github.com/lueurxax/idea-miner/internal/core/llm"
)

// BatchReport summarizes one invocation.
type BatchReport struct {
	Outcomes         map[Outcome]int
	Rows             int
	Skipped          int // rows left untouched after cancellation
	PromptTokens     int
	CompletionTokens int
	CostUSD          float64
	ScreeningTokens  int // solvability tokens; log entries carry synthesis tokens only
	Duration         time.Duration
}

func newBatchReport() BatchReport {
	return BatchReport{Outcomes: make(map[Outcome]int, len(Outcomes))}
}

func (r *BatchReport) add(outcome Outcome, entry domain.GenerationLogEntry, screening llm.Usage) {
	r.Rows++
	r.Outcomes[outcome]++
	r.PromptTokens += entry.PromptTokens
	r.CompletionTokens += entry.CompletionTokens
	r.CostUSD += entry.CostUSD
	r.ScreeningTokens += screening.Total()
}

// Successes returns the number of rows that produced an idea.
func (r BatchReport) Successes() int {
	return r.Outcomes[OutcomeSuccess]
}

// Log writes the report as one structured line.
func (r BatchReport) Log(logger *zerolog.Logger) {
	counts := zerolog.Dict()
	for _, o := range Outcomes {
		counts = counts.Int(string(o), r.Outcomes[o])
	}

	logger.Info().
		Int("rows", r.Rows).
		Int("skipped", r.Skipped).
		Dict("outcomes", counts).
		Int("prompt_tokens", r.PromptTokens).
		Int("completion_tokens", r.CompletionTokens).
		Float64("cost_usd", r.CostUSD).
		Int("screening_tokens", r.ScreeningTokens).
		Dur("duration", r.Duration).
		Msg("batch complete")
}
