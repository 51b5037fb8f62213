// Package app wires configuration, storage and model clients into the runnable modes.
//
// The App type exposes one method per operational mode:
//
//   - RunOnce: a single batch invocation (CLI `run`, HTTP trigger, serve loop)
//   - RunServe: poll loop plus the health, metrics and trigger HTTP server
//   - Enqueue / IngestReddit: fill the ingestion queue
//   - Stats: aggregate the generation log
//
// Every path that runs a batch goes through RunOnce so at most one batch runs per process.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lueurxax/idea-miner/internal/core/domain"
	"github.com/lueurxax/idea-miner/internal/core/embeddings"
	"github.com/lueurxax/idea-miner/internal/core/llm"
	"github.com/lueurxax/idea-miner/internal/ingest"
	"github.com/lueurxax/idea-miner/internal/platform/config"
	"github.com/lueurxax/idea-miner/internal/platform/observability"
	"github.com/lueurxax/idea-miner/internal/platform/worker"
	"github.com/lueurxax/idea-miner/internal/process/filters"
	"github.com/lueurxax/idea-miner/internal/process/pipeline"
	"github.com/lueurxax/idea-miner/internal/process/solvability"
	"github.com/lueurxax/idea-miner/internal/process/synthesis"
	"github.com/lueurxax/idea-miner/internal/storage"
)

const (
	workerName             = "idea-pipeline"
	backlogTaskName        = "backlog-gauge"
	backlogRefreshInterval = time.Minute
)

var errBatchFailed = errors.New("batch failed")

// batchRunner is the part of the orchestrator the app drives.
type batchRunner interface {
	RunBatch(ctx context.Context) (domain.Status, error)
}

// App holds process-wide dependencies.
type App struct {
	cfg      *config.Config
	database *storage.DB
	logger   *zerolog.Logger
	runner   batchRunner

	// mu serializes batch invocations within this process.
	mu sync.Mutex
}

// New builds the model clients and the orchestrator.
func New(cfg *config.Config, database *storage.DB, logger *zerolog.Logger) (*App, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	runner, err := newOrchestrator(cfg, database, logger)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:      cfg,
		database: database,
		logger:   logger,
		runner:   runner,
	}, nil
}

func newOrchestrator(cfg *config.Config, database *storage.DB, logger *zerolog.Logger) (*pipeline.Orchestrator, error) {
	registry := llm.New(cfg, logger)

	classifier, err := filters.NewClassifier(cfg.ComplaintPatternList())
	if err != nil {
		return nil, fmt.Errorf("complaint classifier: %w", err)
	}

	synth, err := synthesis.New(registry, cfg.SynthesisModel)
	if err != nil {
		return nil, fmt.Errorf("idea synthesizer: %w", err)
	}

	// Left as a nil interface when disabled so the orchestrator skips embedding.
	var embedder pipeline.Embedder

	embCfg := cfg.EmbeddingCfg()
	if embCfg.Enabled {
		embedder = embeddings.NewOpenAI(embeddings.OpenAIConfig{
			APIKey:     embCfg.APIKey,
			Model:      embCfg.Model,
			Dimensions: embCfg.Dimensions,
			RateLimit:  embCfg.RateLimitRPS,
			Circuit: embeddings.CircuitBreakerConfig{
				Threshold:  embCfg.CircuitThreshold,
				ResetAfter: embCfg.CircuitTimeout,
			},
		}, logger)
	}

	workerCfg := cfg.WorkerCfg()

	logger.Info().
		Int("batch_size", workerCfg.BatchSize).
		Int("patterns", classifier.PatternCount()).
		Bool("embeddings", embCfg.Enabled).
		Msg("pipeline configured")

	return pipeline.New(
		database,
		classifier,
		solvability.New(registry, cfg.SolvabilityModel),
		synth,
		embedder,
		pipeline.Options{
			BatchSize:               workerCfg.BatchSize,
			CostPerMillionTokensUSD: workerCfg.CostPerMillionTokensUSD,
		},
		logger,
	), nil
}

// RunOnce runs one batch. Concurrent callers wait for the running batch to finish.
func (a *App) RunOnce(ctx context.Context) domain.Status {
	a.mu.Lock()
	defer a.mu.Unlock()

	status, err := a.runner.RunBatch(ctx)
	if err != nil {
		a.logger.Error().Err(err).Str("status", string(status)).Msg("batch failed")
	}

	return status
}

// Migrate applies the embedded schema migrations.
func (a *App) Migrate(ctx context.Context) error {
	return a.database.Migrate(ctx)
}

// RunServe runs the poll loop and the HTTP server until ctx is canceled.
func (a *App) RunServe(ctx context.Context) error {
	workerCfg := a.cfg.WorkerCfg()

	a.logger.Info().Dur("poll_interval", workerCfg.PollInterval).Msg("Starting serve mode")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := worker.Loop(gctx, worker.Config{
			Name:         workerName,
			PollInterval: workerCfg.PollInterval,
			Process:      a.processOnce,
			PeriodicTasks: []worker.PeriodicTask{{
				Name:     backlogTaskName,
				Interval: backlogRefreshInterval,
				Run:      a.refreshBacklog,
			}},
			OnError: func(err error) bool {
				a.logger.Warn().Err(err).Msg("batch iteration failed, will retry next poll")
				return true
			},
			Logger: a.logger,
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}

		return err
	})

	g.Go(func() error {
		return observability.NewServer(a.database, a.RunOnce, workerCfg.HealthPort, a.logger).Start(gctx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	return nil
}

func (a *App) processOnce(ctx context.Context) error {
	if a.RunOnce(ctx) == domain.StatusError {
		return errBatchFailed
	}

	return nil
}

func (a *App) refreshBacklog(ctx context.Context) {
	n, err := a.database.BacklogCount(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Msg("backlog count failed")
		return
	}

	observability.PipelineBacklog.Set(float64(n))
}

// Enqueue imports JSONL complaints from r under the given source.
func (a *App) Enqueue(ctx context.Context, r io.Reader, source string) (ingest.Stats, error) {
	stats, err := ingest.ImportJSONL(ctx, r, source, a.database, a.logger)
	if err != nil {
		return stats, fmt.Errorf("enqueue %s: %w", source, err)
	}

	return stats, nil
}

// IngestReddit enqueues recent posts of the given subreddits.
func (a *App) IngestReddit(ctx context.Context, subreddits []string, filter string, limit int) (ingest.Stats, error) {
	redditCfg := a.cfg.RedditCfg()
	reader := ingest.NewRedditReader(ingest.RedditConfig{
		UserAgent: redditCfg.UserAgent,
		Timeout:   redditCfg.Timeout,
	}, a.logger)

	return reader.Ingest(ctx, a.database, subreddits, filter, limit)
}

// IdeaCount returns the number of stored ideas.
func (a *App) IdeaCount(ctx context.Context) (int64, error) {
	return a.database.CountIdeas(ctx)
}

// Stats aggregates generation log entries recorded since the given time.
func (a *App) Stats(ctx context.Context, since time.Time) (domain.GenerationStats, error) {
	return a.database.GenerationStats(ctx, since)
}
