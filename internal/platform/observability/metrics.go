package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ideaminer_pipeline_rows_total",
		Help: "Queue rows processed by the batch orchestrator, by terminal outcome",
	}, []string{"outcome"})

	PipelineBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ideaminer_pipeline_batches_total",
		Help: "Batch invocations by returned status",
	}, []string{"status"})

	PipelineBatchDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ideaminer_pipeline_batch_duration_seconds",
		Help:    "Duration in seconds to process a batch",
		Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 300, 600},
	})

	PipelineBacklog = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ideaminer_pipeline_backlog_size",
		Help: "Number of unprocessed queue rows",
	})

	GenerationLogFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ideaminer_generation_log_failures_total",
		Help: "Generation log entries that could not be appended",
	})

	IdeasPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ideaminer_ideas_persisted_total",
		Help: "Ideas upserted by the pipeline",
	})

	QueueRowsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ideaminer_queue_rows_ingested_total",
		Help: "Complaints inserted into the ingestion queue, by source",
	}, []string{"source"})

	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ideaminer_llm_requests_total",
		Help: "Chat completion requests by provider, model, task and status",
	}, []string{"provider", "model", "task", "status"})

	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ideaminer_llm_request_duration_seconds",
		Help:    "Duration of chat completion requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "task"})

	LLMTokensPrompt = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ideaminer_llm_tokens_prompt_total",
		Help: "Prompt tokens consumed",
	}, []string{"provider", "model", "task"})

	LLMTokensCompletion = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ideaminer_llm_tokens_completion_total",
		Help: "Completion tokens consumed",
	}, []string{"provider", "model", "task"})

	LLMEstimatedCostUSD = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ideaminer_llm_estimated_cost_usd_total",
		Help: "Estimated spend in USD using the configured per-million-token price",
	}, []string{"task"})

	LLMProviderAvailable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ideaminer_llm_provider_available",
		Help: "Whether an LLM provider is registered and configured (1) or not (0)",
	}, []string{"provider"})

	EmbeddingRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ideaminer_embedding_requests_total",
		Help: "Embedding requests by status",
	}, []string{"status"})
)
