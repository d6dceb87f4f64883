package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/coregraph/typegraph/internal/storage"
)

// isRetryableError classifies a driver error as transient (connection
// reset, serialization failure, deadlock) versus logical (constraint
// violation), mirroring the teacher's isRetryableError/isLockError string
// classification but against pgconn.PgError SQLSTATE codes, which pgx
// exposes directly instead of requiring substring matching.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, pgx.ErrNoRows) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", // serialization_failure
			"40P01", // deadlock_detected
			"08000", "08003", "08006", "08001", "08004": // connection_exception family
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// wrapPgError maps a driver error onto the storage error taxonomy for op,
// so callers can branch on storage.ErrXxx regardless of backend.
func wrapPgError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return storage.Wrap(storage.KindCancellation, op, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return storage.Wrap(storage.KindTransient, op, err)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.Wrap(storage.KindReference, op, fmt.Errorf("%w", storage.ErrNotFound))
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return storage.WrapID(storage.KindConflict, op, pgErr.ConstraintName, err)
		case "23503": // foreign_key_violation
			return storage.WrapID(storage.KindReference, op, pgErr.ConstraintName, err)
		case "23514", "23502", "22P02": // check_violation, not_null_violation, invalid_text_representation
			return storage.Wrap(storage.KindValidation, op, err)
		case "40001", "40P01":
			return storage.Wrap(storage.KindTransient, op, err)
		}
	}
	return storage.Wrap(storage.KindFatal, op, err)
}
