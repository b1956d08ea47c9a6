package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TransactionManager is implemented by repositories that can scope several
// writes to one explicit database transaction. Rollback on a transaction that
// already committed must be a no-op so callers can always defer it.
type TransactionManager interface {
	// Begin starts a new database transaction.
	Begin(ctx context.Context) (pgx.Tx, error)

	// Commit commits the transaction.
	Commit(ctx context.Context, tx pgx.Tx) error

	// Rollback rolls the transaction back, tolerating one that has already
	// finished.
	Rollback(ctx context.Context, tx pgx.Tx) error
}
