package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dulces-mila/mila-backend/internal/shared"
)

// WithTx executes a function within a transaction using the RepeatableRead
// isolation level. Serialization failures are normalised to
// shared.ErrTxConflict so callers can retry the whole unit of work.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		if IsConflict(err) {
			return fmt.Errorf("%w: %v", shared.ErrTxConflict, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		if IsConflict(err) {
			return fmt.Errorf("platform/db: commit: %w: %v", shared.ErrTxConflict, err)
		}
		return fmt.Errorf("platform/db: commit tx: %w", err)
	}

	return nil
}

// IsConflict reports whether err is a concurrent-modification failure
// (serialization failure or deadlock) that makes the transaction safe to
// retry from scratch.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// IsUniqueViolation reports whether err is a unique-constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
