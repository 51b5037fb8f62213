package embeddings

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	coreerrors "github.com/lueurxax/idea-miner/internal/core/errors"
)

// ErrCircuitBreakerOpen indicates the circuit breaker is open.
var ErrCircuitBreakerOpen = coreerrors.ErrCircuitBreakerOpen

// Circuit breaker defaults.
const (
	DefaultCircuitThreshold = 5
	DefaultCircuitTimeout   = time.Minute
)

// CircuitBreakerConfig configures when a breaker opens and for how long.
type CircuitBreakerConfig struct {
	Threshold  int
	ResetAfter time.Duration
}

// WithDefaults fills zero fields with package defaults.
func (c CircuitBreakerConfig) WithDefaults() CircuitBreakerConfig {
	if c.Threshold <= 0 {
		c.Threshold = DefaultCircuitThreshold
	}

	if c.ResetAfter <= 0 {
		c.ResetAfter = DefaultCircuitTimeout
	}

	return c
}

// CircuitBreaker stops calls to a remote model service after consecutive failures.
// It is shared by the embedding client and the chat provider registry.
type CircuitBreaker struct {
	name                string
	threshold           int
	resetAfter          time.Duration
	consecutiveFailures int
	openUntil           time.Time
	mu                  sync.Mutex
	logger              *zerolog.Logger
	now                 func() time.Time
}

// NewCircuitBreaker creates a new circuit breaker for the named service.
func NewCircuitBreaker(name string, cfg CircuitBreakerConfig, logger *zerolog.Logger) *CircuitBreaker {
	cfg = cfg.WithDefaults()

	return &CircuitBreaker{
		name:       name,
		threshold:  cfg.Threshold,
		resetAfter: cfg.ResetAfter,
		logger:     logger,
		now:        time.Now,
	}
}

// CanAttempt returns true if the circuit allows an attempt.
func (cb *CircuitBreaker) CanAttempt() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return !cb.now().Before(cb.openUntil)
}

// CheckCircuit returns an error if the circuit is open.
func (cb *CircuitBreaker) CheckCircuit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.now().Before(cb.openUntil) {
		return fmt.Errorf("%s: %w until %v", cb.name, ErrCircuitBreakerOpen, cb.openUntil)
	}

	return nil
}

// RecordSuccess records a successful call and resets the failure count.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFailures = 0
}

// RecordFailure records a failed call and opens the circuit if threshold is reached.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFailures++

	if cb.consecutiveFailures < cb.threshold {
		return
	}

	cb.openUntil = cb.now().Add(cb.resetAfter)

	if cb.logger != nil {
		cb.logger.Warn().
			Str("service", cb.name).
			Int("consecutive_failures", cb.consecutiveFailures).
			Time("open_until", cb.openUntil).
			Msg("circuit breaker opened")
	}
}

// Reset resets the circuit breaker state.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFailures = 0
	cb.openUntil = time.Time{}
}
