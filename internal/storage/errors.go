package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	coreerrors "github.com/lueurxax/idea-miner/internal/core/errors"
)

// classify wraps err with the storage sentinel matching its cause. Integrity and data
// exceptions are the caller's fault; anything else is treated as the store being unreachable.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, coreerrors.ErrConstraintViolation) || errors.Is(err, coreerrors.ErrStorageUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && isCallerError(pgErr.Code) {
		return fmt.Errorf("%s: %w: %w", op, coreerrors.ErrConstraintViolation, err)
	}

	return fmt.Errorf("%s: %w: %w", op, coreerrors.ErrStorageUnavailable, err)
}

func isCallerError(code string) bool {
	return strings.HasPrefix(code, sqlStateClassDataException) ||
		strings.HasPrefix(code, sqlStateClassIntegrityConstraint)
}

func invalid(op, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", op, coreerrors.ErrConstraintViolation, fmt.Sprintf(format, args...))
}

func validateID(op, name, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return invalid(op, "%s %q is not a uuid", name, id)
	}

	return nil
}
