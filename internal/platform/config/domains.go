package config

import "time"

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	PostgresDSN       string
	MaxConnections    int32
	MinConnections    int32
	MaxConnIdleTime   time.Duration
	MaxConnLifetime   time.Duration
	HealthCheckPeriod time.Duration
}

// EmbeddingConfig holds thesis embedding settings.
type EmbeddingConfig struct {
	Enabled          bool
	APIKey           string
	Model            string
	Dimensions       int
	RateLimitRPS     float64
	CircuitThreshold int
	CircuitTimeout   time.Duration
}

// WorkerConfig holds batch processing settings.
type WorkerConfig struct {
	BatchSize               int
	CostPerMillionTokensUSD float64
	PollInterval            time.Duration
	HealthPort              int
}

// RedditConfig holds subreddit feed ingestion settings.
type RedditConfig struct {
	UserAgent string
	Timeout   time.Duration
}

// DatabaseCfg returns the database settings.
func (c *Config) DatabaseCfg() DatabaseConfig {
	return DatabaseConfig{
		PostgresDSN:       c.PostgresDSN,
		MaxConnections:    c.DBMaxConnections,
		MinConnections:    c.DBMinConnections,
		MaxConnIdleTime:   c.DBMaxConnIdleTime,
		MaxConnLifetime:   c.DBMaxConnLifetime,
		HealthCheckPeriod: c.DBHealthCheckPeriod,
	}
}

// EmbeddingCfg returns the embedding settings. Embeddings share the OpenAI key and
// the chat circuit breaker tuning.
func (c *Config) EmbeddingCfg() EmbeddingConfig {
	return EmbeddingConfig{
		Enabled:          c.EmbeddingEnabled,
		APIKey:           c.LLMAPIKey,
		Model:            c.EmbeddingModel,
		Dimensions:       c.EmbeddingDimensions,
		RateLimitRPS:     c.RateLimitRPS,
		CircuitThreshold: c.LLMCircuitThreshold,
		CircuitTimeout:   c.LLMCircuitTimeout,
	}
}

// WorkerCfg returns the batch processing settings.
func (c *Config) WorkerCfg() WorkerConfig {
	return WorkerConfig{
		BatchSize:               c.BatchSize,
		CostPerMillionTokensUSD: c.CostPerMillionTokensUSD,
		PollInterval:            c.WorkerPollInterval,
		HealthPort:              c.HealthPort,
	}
}

// RedditCfg returns the subreddit ingestion settings.
func (c *Config) RedditCfg() RedditConfig {
	return RedditConfig{
		UserAgent: c.RedditUserAgent,
		Timeout:   c.RedditTimeout,
	}
}
