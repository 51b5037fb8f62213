package config

import (
	"errors"
	"testing"
	"time"

	coreerrors "github.com/lueurxax/idea-miner/internal/core/errors"
)

// Test environment variable keys.
const (
	testEnvPostgresDSN = "POSTGRES_DSN"
	testEnvLLMAPIKey   = "LLM_API_KEY"
	testEnvBatchSize   = "BATCH_SIZE"
)

// Test values.
const (
	testPostgresDSN = "postgres://localhost/test"
	testLLMAPIKey   = "sk-test"
	testErrLoad     = "Load() error = %v"
)

func setRequiredEnvVars(t *testing.T) {
	t.Helper()

	t.Setenv(testEnvPostgresDSN, testPostgresDSN)
	t.Setenv(testEnvLLMAPIKey, testLLMAPIKey)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv(testEnvPostgresDSN, "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv(testEnvLLMAPIKey, testLLMAPIKey)

	_, err := Load()
	if !errors.Is(err, coreerrors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for missing POSTGRES_DSN, got %v", err)
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.PostgresDSN != testPostgresDSN {
		t.Errorf("PostgresDSN = %q, want %q", cfg.PostgresDSN, testPostgresDSN)
	}

	if cfg.LLMAPIKey != testLLMAPIKey {
		t.Errorf("LLMAPIKey = %q, want %q", cfg.LLMAPIKey, testLLMAPIKey)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.BatchSize != 100 {
		t.Errorf("BatchSize = %d, want 100", cfg.BatchSize)
	}

	if cfg.CostPerMillionTokensUSD != 0.1 {
		t.Errorf("CostPerMillionTokensUSD = %v, want 0.1", cfg.CostPerMillionTokensUSD)
	}

	if cfg.SolvabilityModel != "gpt-4.1-nano" {
		t.Errorf("SolvabilityModel = %q, want gpt-4.1-nano", cfg.SolvabilityModel)
	}

	if cfg.SynthesisModel != "gpt-4.1-mini" {
		t.Errorf("SynthesisModel = %q, want gpt-4.1-mini", cfg.SynthesisModel)
	}

	if cfg.WorkerPollInterval != 10*time.Minute {
		t.Errorf("WorkerPollInterval = %v, want 10m", cfg.WorkerPollInterval)
	}

	if cfg.ComplaintPatternList() != nil {
		t.Errorf("ComplaintPatternList() = %v, want nil", cfg.ComplaintPatternList())
	}
}

func TestLoad_LegacyAliases(t *testing.T) {
	t.Setenv("DATABASE_URL", testPostgresDSN)
	t.Setenv("OPENAI_API_KEY", testLLMAPIKey)
	t.Setenv("WORKER_BATCH_SIZE", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.PostgresDSN != testPostgresDSN {
		t.Errorf("PostgresDSN = %q, want %q", cfg.PostgresDSN, testPostgresDSN)
	}

	if cfg.LLMAPIKey != testLLMAPIKey {
		t.Errorf("LLMAPIKey = %q, want %q", cfg.LLMAPIKey, testLLMAPIKey)
	}

	if cfg.BatchSize != 7 {
		t.Errorf("BatchSize = %d, want 7", cfg.BatchSize)
	}
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv(testEnvBatchSize, "0")

	if _, err := Load(); !errors.Is(err, coreerrors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for BATCH_SIZE=0, got %v", err)
	}
}

func TestComplaintPatternList(t *testing.T) {
	cfg := &Config{ComplaintPatterns: " i wish | |this sucks"}

	got := cfg.ComplaintPatternList()
	want := []string{"i wish", "this sucks"}

	if len(got) != len(want) {
		t.Fatalf("ComplaintPatternList() = %v, want %v", got, want)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ComplaintPatternList()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestGroupedConfigs(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("EMBEDDING_ENABLED", "true")
	t.Setenv("WORKER_POLL_INTERVAL", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	db := cfg.DatabaseCfg()
	if db.PostgresDSN != testPostgresDSN || db.MaxConnections != cfg.DBMaxConnections {
		t.Errorf("DatabaseCfg() = %+v", db)
	}

	emb := cfg.EmbeddingCfg()
	if !emb.Enabled || emb.APIKey != testLLMAPIKey || emb.Dimensions != 1536 {
		t.Errorf("EmbeddingCfg() = %+v", emb)
	}

	w := cfg.WorkerCfg()
	if w.PollInterval != 30*time.Second || w.BatchSize != 100 || w.HealthPort != 8080 {
		t.Errorf("WorkerCfg() = %+v", w)
	}

	if r := cfg.RedditCfg(); r.UserAgent != "idea-miner/1.0" || r.Timeout != 30*time.Second {
		t.Errorf("RedditCfg() = %+v", r)
	}
}
