package llm

import (
	"time"

	"github.com/lueurxax/idea-miner/internal/platform/observability"
)

// UsageRecorder records token usage metrics for LLM requests.
// This interface allows for dependency injection and easier testing.
type UsageRecorder interface {
	RecordTokenUsage(provider ProviderName, model string, task Task, usage Usage, elapsed time.Duration, success bool)
}

// usageRecorder exports Prometheus counters. The audit trail itself lives in the
// generation log written by the pipeline.
type usageRecorder struct {
	unitPricePerMillion float64
}

// NewUsageRecorder creates a UsageRecorder that prices tokens at the given per-million rate.
func NewUsageRecorder(unitPricePerMillion float64) UsageRecorder {
	return &usageRecorder{unitPricePerMillion: unitPricePerMillion}
}

// RecordTokenUsage records token usage metrics for an LLM request.
func (r *usageRecorder) RecordTokenUsage(provider ProviderName, model string, task Task, usage Usage, elapsed time.Duration, success bool) {
	status := StatusSuccess
	if !success {
		status = StatusError
	}

	observability.LLMRequests.WithLabelValues(string(provider), model, string(task), status).Inc()
	observability.LLMRequestDuration.WithLabelValues(string(provider), string(task)).Observe(elapsed.Seconds())

	if !success {
		return
	}

	if usage.PromptTokens > 0 {
		observability.LLMTokensPrompt.WithLabelValues(string(provider), model, string(task)).Add(float64(usage.PromptTokens))
	}

	if usage.CompletionTokens > 0 {
		observability.LLMTokensCompletion.WithLabelValues(string(provider), model, string(task)).Add(float64(usage.CompletionTokens))
	}

	if cost := usage.Cost(r.unitPricePerMillion); cost > 0 {
		observability.LLMEstimatedCostUSD.WithLabelValues(string(task)).Add(cost)
	}
}

// noopUsageRecorder is a no-op implementation for testing or when usage tracking is disabled.
type noopUsageRecorder struct{}

// NoopUsageRecorder returns a no-op implementation of UsageRecorder.
func NoopUsageRecorder() UsageRecorder {
	return &noopUsageRecorder{}
}

// RecordTokenUsage does nothing (no-op implementation).
func (r *noopUsageRecorder) RecordTokenUsage(_ ProviderName, _ string, _ Task, _ Usage, _ time.Duration, _ bool) {
	// No-op
}
