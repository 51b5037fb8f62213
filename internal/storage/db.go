// Package storage provides PostgreSQL access for the idea pipeline.
//
// This package contains:
//   - DB: connection pool wrapper with the queue, idea and generation log queries
//   - Migration support via goose (embedded SQL, advisory-locked)
//   - Error classification into ErrStorageUnavailable / ErrConstraintViolation
//
// Queries run against the Pool interface so tests can substitute pgxmock.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	coreerrors "github.com/lueurxax/idea-miner/internal/core/errors"
	"github.com/lueurxax/idea-miner/migrations"
)

// Pool is the subset of pgxpool.Pool used by DB. pgxmock.PgxPoolIface satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// DB wraps a PostgreSQL connection pool.
type DB struct {
	Pool   Pool
	Logger *zerolog.Logger

	connConfig *pgx.ConnConfig
}

// PoolOptions configures the database connection pool.
type PoolOptions struct {
	MaxConns          int32
	MinConns          int32
	MaxConnIdleTime   time.Duration
	MaxConnLifetime   time.Duration
	HealthCheckPeriod time.Duration
}

// DefaultPoolOptions returns sensible default pool configuration.
func DefaultPoolOptions() PoolOptions {
	return PoolOptions{
		MaxConns:          defaultMaxConns,
		MinConns:          defaultMinConns,
		MaxConnIdleTime:   defaultMaxConnIdleTime,
		MaxConnLifetime:   defaultMaxConnLifetime,
		HealthCheckPeriod: defaultHealthCheckPeriod,
	}
}

// New creates a new database connection with default pool options.
func New(ctx context.Context, dsn string, logger *zerolog.Logger) (*DB, error) {
	return NewWithOptions(ctx, dsn, DefaultPoolOptions(), logger)
}

// NewWithOptions creates a new database connection with custom pool options.
func NewWithOptions(ctx context.Context, dsn string, opts PoolOptions, logger *zerolog.Logger) (*DB, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w: %w", coreerrors.ErrInvalidInput, err)
	}

	applyPoolOptions(config, opts)

	return connectWithRetries(ctx, config, logger)
}

// NewWithPool wraps an existing pool. Migrate is unavailable on such a DB.
func NewWithPool(pool Pool, logger *zerolog.Logger) *DB {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &DB{Pool: pool, Logger: logger}
}

// applyPoolOptions applies non-zero pool options to the config.
func applyPoolOptions(config *pgxpool.Config, opts PoolOptions) {
	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}

	if opts.MinConns > 0 {
		config.MinConns = opts.MinConns
	}

	if opts.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	if opts.MaxConnLifetime > 0 {
		config.MaxConnLifetime = opts.MaxConnLifetime
	}

	if opts.HealthCheckPeriod > 0 {
		config.HealthCheckPeriod = opts.HealthCheckPeriod
	}
}

// connectWithRetries attempts to connect to the database with retries.
func connectWithRetries(ctx context.Context, config *pgxpool.Config, logger *zerolog.Logger) (*DB, error) {
	var (
		pool *pgxpool.Pool
		err  error
	)

	for i := 0; i < maxConnectionRetries; i++ {
		pool, err = pgxpool.NewWithConfig(ctx, config)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				db := NewWithPool(pool, logger)
				db.connConfig = config.ConnConfig

				return db, nil
			}
		}

		if pool != nil {
			pool.Close()
		}

		logger.Warn().Err(err).Int("attempt", i+1).Msg("database not reachable, retrying")

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect to database: %w: %w", coreerrors.ErrStorageUnavailable, ctx.Err())
		case <-time.After(ConnectionRetrySleep):
		}
	}

	return nil, fmt.Errorf("failed to connect to database after retries: %w: %w", coreerrors.ErrStorageUnavailable, err)
}

// Close closes the database connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}

// Ping checks that the database answers.
func (db *DB) Ping(ctx context.Context) error {
	return classify("ping", db.Pool.Ping(ctx))
}

type gooseLogger struct {
	logger *zerolog.Logger
}

func (l *gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error().Msgf(format, v...)
}

func (l *gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info().Msgf(format, v...)
}

// Migrate runs the embedded goose migrations. A session advisory lock keeps concurrent
// instances from migrating at the same time.
func (db *DB) Migrate(ctx context.Context) error {
	if db.connConfig == nil {
		return fmt.Errorf("migrate: %w: pool has no connection config", coreerrors.ErrInvalidInput)
	}

	sqlDB := stdlib.OpenDB(*db.connConfig)

	defer func() {
		_ = sqlDB.Close()
	}()

	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return classify("acquire migration connection", err)
	}

	defer func() {
		_ = conn.Close()
	}()

	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", migrationLockID); err != nil {
		return classify("acquire advisory lock", err)
	}

	defer func() {
		//nolint:errcheck // lock is released on connection close anyway
		_, _ = conn.ExecContext(context.WithoutCancel(ctx), "SELECT pg_advisory_unlock($1)", migrationLockID)
	}()

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(&gooseLogger{logger: db.Logger})

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
