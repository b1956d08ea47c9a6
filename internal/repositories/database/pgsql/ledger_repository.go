package pgsql

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerkeep/ledgerkeep/internal/apperrors"
	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
	portsrepo "github.com/ledgerkeep/ledgerkeep/internal/core/ports/repositories"
	"github.com/ledgerkeep/ledgerkeep/internal/utils/pagination"
)

type PgxLedgerRepository struct {
	BaseRepository
}

// newPgxLedgerRepository creates a new repository for ledger data.
func newPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepositoryWithTx {
	return &PgxLedgerRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxLedgerRepository implements portsrepo.LedgerRepositoryWithTx
var _ portsrepo.LedgerRepositoryWithTx = (*PgxLedgerRepository)(nil)

var FULL_LEDGER_SELECT_QUERY = `
SELECT
	l.ledger_id, l.entity_id, l.name, l.description, l.posted, l.locked, l.hidden,
	l.version, l.created_at, l.created_by, l.last_updated_at, l.last_updated_by
FROM ledgers l
`

// getLedgers private func to get ledgers from the select query filters
func (r *PgxLedgerRepository) getLedgers(ctx context.Context, filterQuery string, args ...any) ([]domain.Ledger, error) {
	query := FULL_LEDGER_SELECT_QUERY + filterQuery
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query ledgers", err)
	}
	defer rows.Close()
	domainLedgers, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.Ledger])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) { // It's possible to get no rows, which is not an error for a list.
			return []domain.Ledger{}, nil
		}
		return nil, apperrors.NewAppError(500, "failed to collect ledger rows", err)
	}

	return domainLedgers, nil
}

func (r *PgxLedgerRepository) SaveLedger(ctx context.Context, ledger domain.Ledger) error {
	query := `
		INSERT INTO ledgers (
			ledger_id, entity_id, name, description, posted, locked, hidden,
			version, created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err := r.Pool.Exec(ctx, query,
		ledger.LedgerID,
		ledger.EntityID,
		ledger.Name,
		ledger.Description,
		ledger.Posted,
		ledger.Locked,
		ledger.Hidden,
		ledger.Version,
		ledger.CreatedAt,
		ledger.CreatedBy,
		ledger.LastUpdatedAt,
		ledger.LastUpdatedBy,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				return apperrors.NewConflictError("ledger ID " + ledger.LedgerID + " already exists")
			}
			if pgErr.Code == "23503" { // foreign_key_violation, entity must exist
				return apperrors.NewValidationFailedError("entity " + ledger.EntityID + " does not exist")
			}
		}
		return apperrors.NewAppError(500, "failed to save ledger "+ledger.LedgerID, err)
	}
	return nil
}

func (r *PgxLedgerRepository) FindLedgerByID(ctx context.Context, ledgerID string) (*domain.Ledger, error) {
	query := `WHERE l.ledger_id = $1`
	ledgers, err := r.getLedgers(ctx, query, ledgerID)
	if err != nil {
		return nil, err
	}
	if len(ledgers) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &ledgers[0], nil
}

// ListLedgersByEntityForUser lists the entity's ledgers visible to a user.
// The membership join makes the result empty for non-members and removed
// members, so callers never learn whether the entity has ledgers at all.
func (r *PgxLedgerRepository) ListLedgersByEntityForUser(ctx context.Context, entityID, userID string, limit int, nextToken *string, includeHidden bool, posted *bool) ([]domain.Ledger, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1 // Fetch one extra to detect whether there is a next page

	filterQuery := `
		JOIN user_entities ue ON ue.entity_id = l.entity_id
		WHERE l.entity_id = $1 AND ue.user_id = $2 AND ue.role != $3
	`
	args := []any{entityID, userID, domain.RoleRemoved}

	if !includeHidden {
		filterQuery += ` AND l.hidden = false`
	}
	if posted != nil {
		filterQuery += ` AND l.posted = $` + strconv.Itoa(len(args)+1)
		args = append(args, *posted)
	}

	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, err := pagination.DecodeDateBasedToken(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewValidationFailedError("invalid pagination token")
		}
		filterQuery += ` AND l.created_at < $` + strconv.Itoa(len(args)+1)
		args = append(args, lastCreatedAt)
	}

	filterQuery += ` ORDER BY l.created_at DESC LIMIT $` + strconv.Itoa(len(args)+1)
	args = append(args, fetchLimit)

	ledgers, err := r.getLedgers(ctx, filterQuery, args...)
	if err != nil {
		return nil, nil, err
	}

	var newNextToken *string
	if len(ledgers) == fetchLimit {
		ledgers = ledgers[:limit]
		token := pagination.EncodeDateBasedToken(ledgers[limit-1].CreatedAt)
		newNextToken = &token
	}

	return ledgers, newNextToken, nil
}

// UpdateLedgerState persists the posted and locked flags with an optimistic
// version check. Zero rows affected means another writer advanced the version
// first, which is reported as a conflict.
func (r *PgxLedgerRepository) UpdateLedgerState(ctx context.Context, ledger domain.Ledger) error {
	query := `
		UPDATE ledgers
		SET posted = $1, locked = $2, last_updated_at = $3, last_updated_by = $4, version = version + 1
		WHERE ledger_id = $5 AND version = $6;
	`
	result, err := r.Pool.Exec(ctx, query,
		ledger.Posted,
		ledger.Locked,
		ledger.LastUpdatedAt,
		ledger.LastUpdatedBy,
		ledger.LedgerID,
		ledger.Version,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update state of ledger "+ledger.LedgerID, err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.NewConflictError("ledger " + ledger.LedgerID + " was modified concurrently")
	}

	return nil
}

// UpdateLedgerDetails updates display fields only. Lifecycle flags and the
// version are untouched, so concurrent detail edits follow last-write-wins.
func (r *PgxLedgerRepository) UpdateLedgerDetails(ctx context.Context, ledger domain.Ledger) error {
	query := `
		UPDATE ledgers
		SET name = $1, description = $2, hidden = $3, last_updated_at = $4, last_updated_by = $5
		WHERE ledger_id = $6;
	`
	result, err := r.Pool.Exec(ctx, query,
		ledger.Name,
		ledger.Description,
		ledger.Hidden,
		ledger.LastUpdatedAt,
		ledger.LastUpdatedBy,
		ledger.LedgerID,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update details of ledger "+ledger.LedgerID, err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("ledger " + ledger.LedgerID + " not found")
	}

	return nil
}

// DeleteLedger removes the ledger and everything recorded in it inside a
// single transaction. Transactions go first, then entries, then the ledger
// row, keeping foreign keys satisfied throughout.
func (r *PgxLedgerRepository) DeleteLedger(ctx context.Context, ledgerID string) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		deleteTransactionsQuery := `
			DELETE FROM transactions
			WHERE journal_entry_id IN (
				SELECT journal_entry_id FROM journal_entries WHERE ledger_id = $1
			);
		`
		if _, err := tx.Exec(ctx, deleteTransactionsQuery, ledgerID); err != nil {
			return apperrors.NewAppError(500, "failed to delete transactions of ledger "+ledgerID, err)
		}

		deleteEntriesQuery := `DELETE FROM journal_entries WHERE ledger_id = $1;`
		if _, err := tx.Exec(ctx, deleteEntriesQuery, ledgerID); err != nil {
			return apperrors.NewAppError(500, "failed to delete journal entries of ledger "+ledgerID, err)
		}

		deleteLedgerQuery := `DELETE FROM ledgers WHERE ledger_id = $1;`
		result, err := tx.Exec(ctx, deleteLedgerQuery, ledgerID)
		if err != nil {
			return apperrors.NewAppError(500, "failed to delete ledger "+ledgerID, err)
		}
		if result.RowsAffected() == 0 {
			return apperrors.NewNotFoundError("ledger " + ledgerID + " not found")
		}
		return nil
	})
}
