package storage

import "time"

// Database connection constants
const (
	// ConnectionRetrySleep is the sleep duration between connection retries
	ConnectionRetrySleep = 2 * time.Second
	// maxConnectionRetries is the number of retries for initial connection
	maxConnectionRetries = 10
)

// Pool defaults, used when PoolOptions leaves a field at zero.
const (
	defaultMaxConns          int32 = 5
	defaultMinConns          int32 = 1
	defaultMaxConnIdleTime         = 5 * time.Minute
	defaultMaxConnLifetime         = 30 * time.Minute
	defaultHealthCheckPeriod       = time.Minute
)

// migrationLockID is the pg advisory lock key held while goose runs.
const migrationLockID = 7_340_001

// SQLSTATE classes mapped to ErrConstraintViolation.
const (
	sqlStateClassDataException       = "22"
	sqlStateClassIntegrityConstraint = "23"
)
