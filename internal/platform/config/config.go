package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	coreerrors "github.com/lueurxax/idea-miner/internal/core/errors"
)

const patternSeparator = "|"

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	PostgresDSN string `env:"POSTGRES_DSN"`

	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"5"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"1"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"5m"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// Model providers
	LLMAPIKey           string        `env:"LLM_API_KEY"`
	AnthropicAPIKey     string        `env:"ANTHROPIC_API_KEY"`
	AnthropicModel      string        `env:"ANTHROPIC_MODEL" envDefault:"claude-haiku-4-5"`
	SolvabilityModel    string        `env:"SOLVABILITY_MODEL" envDefault:"gpt-4.1-nano"`
	SynthesisModel      string        `env:"SYNTHESIS_MODEL" envDefault:"gpt-4.1-mini"`
	RateLimitRPS        float64       `env:"RATE_LIMIT_RPS" envDefault:"1"`
	LLMCircuitThreshold int           `env:"LLM_CIRCUIT_THRESHOLD" envDefault:"5"`
	LLMCircuitTimeout   time.Duration `env:"LLM_CIRCUIT_TIMEOUT" envDefault:"1m"`

	// Thesis embeddings (optional)
	EmbeddingEnabled    bool   `env:"EMBEDDING_ENABLED" envDefault:"false"`
	EmbeddingModel      string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	EmbeddingDimensions int    `env:"EMBEDDING_DIMENSIONS" envDefault:"1536"`

	// Batch worker
	BatchSize               int           `env:"BATCH_SIZE" envDefault:"100"`
	CostPerMillionTokensUSD float64       `env:"COST_PER_MILLION_TOKENS_USD" envDefault:"0.1"`
	WorkerPollInterval      time.Duration `env:"WORKER_POLL_INTERVAL" envDefault:"10m"`
	ComplaintPatterns       string        `env:"COMPLAINT_PATTERNS" envDefault:""` // "|"-separated regexps, replaces the defaults

	HealthPort int `env:"HEALTH_PORT" envDefault:"8080"`

	// Ingestion
	RedditUserAgent string        `env:"REDDIT_USER_AGENT" envDefault:"idea-miner/1.0"`
	RedditTimeout   time.Duration `env:"REDDIT_TIMEOUT" envDefault:"30s"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	applyLegacyAliases(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that env tags cannot express.
func (c *Config) Validate() error {
	switch {
	case c.PostgresDSN == "":
		return fmt.Errorf("%w: POSTGRES_DSN is required", coreerrors.ErrInvalidInput)
	case c.LLMAPIKey == "" && c.AnthropicAPIKey == "":
		return fmt.Errorf("%w: LLM_API_KEY or ANTHROPIC_API_KEY is required", coreerrors.ErrInvalidInput)
	case c.BatchSize <= 0:
		return fmt.Errorf("%w: BATCH_SIZE must be positive, got %d", coreerrors.ErrInvalidInput, c.BatchSize)
	case c.CostPerMillionTokensUSD < 0:
		return fmt.Errorf("%w: COST_PER_MILLION_TOKENS_USD must not be negative", coreerrors.ErrInvalidInput)
	}

	return nil
}

// ComplaintPatternList returns the configured pattern override, or nil to use the defaults.
func (c *Config) ComplaintPatternList() []string {
	if strings.TrimSpace(c.ComplaintPatterns) == "" {
		return nil
	}

	var patterns []string

	for _, p := range strings.Split(c.ComplaintPatterns, patternSeparator) {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}

	return patterns
}

// applyLegacyAliases accepts the variable names of earlier deployments.
func applyLegacyAliases(cfg *Config) {
	if !hasEnv("POSTGRES_DSN") {
		setStringFromEnv("DATABASE_URL", &cfg.PostgresDSN)
	}

	if !hasEnv("LLM_API_KEY") {
		setStringFromEnv("OPENAI_API_KEY", &cfg.LLMAPIKey)
	}

	if !hasEnv("BATCH_SIZE") {
		setIntFromEnv("WORKER_BATCH_SIZE", &cfg.BatchSize)
	}
}

func hasEnv(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

func setStringFromEnv(key string, target *string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	val = strings.TrimSpace(val)
	if val == "" {
		return
	}

	*target = val
}

func setIntFromEnv(key string, target *int) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	parsed, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return
	}

	*target = parsed
}
