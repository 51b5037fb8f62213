// Package main is the idea-miner command line: batch runs, serve mode and queue ingestion.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lueurxax/idea-miner/internal/app"
	"github.com/lueurxax/idea-miner/internal/platform/config"
	"github.com/lueurxax/idea-miner/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:           "idea-miner",
	Short:         "Turn queued user complaints into software product ideas",
	Long:          "idea-miner filters queued complaints with a pattern classifier and a solvability check, synthesizes structured product ideas and records every attempt in a generation log.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(appEnv string) zerolog.Logger {
	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// runtime is what every subcommand needs: config, logger, an open database and the app.
type runtime struct {
	cfg      *config.Config
	logger   *zerolog.Logger
	database *storage.DB
	app      *app.App
}

func (r *runtime) Close() {
	r.database.Close()
}

// bootstrap loads configuration and connects to Postgres. Callers must Close the result.
func bootstrap(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.AppEnv)

	dbCfg := cfg.DatabaseCfg()

	database, err := storage.NewWithOptions(ctx, dbCfg.PostgresDSN, storage.PoolOptions{
		MaxConns:          dbCfg.MaxConnections,
		MinConns:          dbCfg.MinConnections,
		MaxConnIdleTime:   dbCfg.MaxConnIdleTime,
		MaxConnLifetime:   dbCfg.MaxConnLifetime,
		HealthCheckPeriod: dbCfg.HealthCheckPeriod,
	}, &logger)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	application, err := app.New(cfg, database, &logger)
	if err != nil {
		database.Close()
		return nil, err
	}

	return &runtime{cfg: cfg, logger: &logger, database: database, app: application}, nil
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}
