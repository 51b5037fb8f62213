package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/idea-miner/internal/core/embeddings"
	coreerrors "github.com/lueurxax/idea-miner/internal/core/errors"
	"github.com/lueurxax/idea-miner/internal/platform/observability"
)

// Registry errors.
var (
	ErrNoProvidersAvailable = coreerrors.ErrNoProvidersAvailable
	ErrAllProvidersFailed   = errors.New("all LLM providers failed")
)

// Registry manages chat providers with priority-ordered fallback and per-provider
// circuit breakers. It implements Client.
type Registry struct {
	mu              sync.RWMutex
	providers       map[ProviderName]Provider
	order           []ProviderName // Priority order (highest first)
	circuitBreakers map[ProviderName]*embeddings.CircuitBreaker
	recorder        UsageRecorder
	logger          *zerolog.Logger
}

// NewRegistry creates a new provider registry.
func NewRegistry(recorder UsageRecorder, logger *zerolog.Logger) *Registry {
	if recorder == nil {
		recorder = NoopUsageRecorder()
	}

	return &Registry{
		providers:       make(map[ProviderName]Provider),
		order:           make([]ProviderName, 0),
		circuitBreakers: make(map[ProviderName]*embeddings.CircuitBreaker),
		recorder:        recorder,
		logger:          logger,
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider, cfg embeddings.CircuitBreakerConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.providers[name]; !exists {
		r.order = append(r.order, name)
	}

	r.providers[name] = p
	r.circuitBreakers[name] = embeddings.NewCircuitBreaker(string(name), cfg, r.logger)

	sort.SliceStable(r.order, func(i, j int) bool {
		return r.providers[r.order[i]].Priority() > r.providers[r.order[j]].Priority()
	})

	available := MetricValueUnavailable
	if p.IsAvailable() {
		available = MetricValueAvailable
	}

	observability.LLMProviderAvailable.WithLabelValues(string(name)).Set(available)

	r.logger.Info().
		Str(logKeyProvider, string(name)).
		Int("priority", p.Priority()).
		Msg("registered LLM provider")
}

// ProviderCount returns the number of registered providers.
func (r *Registry) ProviderCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.providers)
}

// Providers returns provider names in the order they are tried.
func (r *Registry) Providers() []ProviderName {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ProviderName, len(r.order))
	copy(out, r.order)

	return out
}

// Complete tries providers in priority order. Every failure is returned wrapped in
// ErrUpstreamCallFailed so callers can classify it.
func (r *Registry) Complete(ctx context.Context, req Request) (Response, error) {
	var (
		lastErr  error
		previous ProviderName
	)

	for _, name := range r.Providers() {
		r.mu.RLock()
		p := r.providers[name]
		cb := r.circuitBreakers[name]
		r.mu.RUnlock()

		if !p.IsAvailable() {
			continue
		}

		if !cb.CanAttempt() {
			r.logger.Debug().Str(logKeyProvider, string(name)).Msg("skipping provider - circuit breaker open")

			lastErr = cb.CheckCircuit()

			continue
		}

		started := time.Now()
		resp, err := p.Complete(ctx, req)
		elapsed := time.Since(started)

		if err != nil {
			cb.RecordFailure()
			r.recorder.RecordTokenUsage(name, req.Model, req.Task, Usage{}, elapsed, false)
			r.logger.Warn().Err(err).Str(logKeyProvider, string(name)).Str(logKeyTask, string(req.Task)).Msg("LLM provider failed")

			lastErr = err
			previous = name

			if ctx.Err() != nil {
				break
			}

			continue
		}

		cb.RecordSuccess()
		r.recorder.RecordTokenUsage(name, resp.Model, req.Task, resp.Usage, elapsed, true)

		if previous != "" {
			r.logger.Info().
				Str(logKeyProvider, string(name)).
				Str("from_provider", string(previous)).
				Str(logKeyTask, string(req.Task)).
				Msg("used fallback LLM provider")
		}

		return resp, nil
	}

	if lastErr != nil {
		return Response{}, fmt.Errorf("%w: %w", coreerrors.ErrUpstreamCallFailed, errors.Join(ErrAllProvidersFailed, lastErr))
	}

	return Response{}, fmt.Errorf("%w: %w", coreerrors.ErrUpstreamCallFailed, ErrNoProvidersAvailable)
}

var _ Client = (*Registry)(nil)
