package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/ledgerkeep/ledgerkeep/internal/apperrors"
	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
	portsrepo "github.com/ledgerkeep/ledgerkeep/internal/core/ports/repositories"
	"github.com/ledgerkeep/ledgerkeep/internal/utils/pagination"
)

type SQLiteLedgerRepository struct {
	db *sql.DB
}

// newSQLiteLedgerRepository creates a new repository for ledger data.
func newSQLiteLedgerRepository(db *sql.DB) portsrepo.LedgerRepositoryFacade {
	return &SQLiteLedgerRepository{db: db}
}

// Ensure SQLiteLedgerRepository implements portsrepo.LedgerRepositoryFacade
var _ portsrepo.LedgerRepositoryFacade = (*SQLiteLedgerRepository)(nil)

const ledgerColumns = `ledger_id, entity_id, name, description, posted, locked, hidden, version,
	       created_at, created_by, last_updated_at, last_updated_by`

func scanLedgerRow(row rowScanner) (domain.Ledger, error) {
	var l domain.Ledger
	err := row.Scan(
		&l.LedgerID,
		&l.EntityID,
		&l.Name,
		&l.Description,
		&l.Posted,
		&l.Locked,
		&l.Hidden,
		&l.Version,
		&l.CreatedAt,
		&l.CreatedBy,
		&l.LastUpdatedAt,
		&l.LastUpdatedBy,
	)
	return l, err
}

func (r *SQLiteLedgerRepository) SaveLedger(ctx context.Context, ledger domain.Ledger) error {
	query := `
		INSERT INTO ledgers (` + ledgerColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	_, err := r.db.ExecContext(ctx, query,
		ledger.LedgerID,
		ledger.EntityID,
		ledger.Name,
		ledger.Description,
		ledger.Posted,
		ledger.Locked,
		ledger.Hidden,
		ledger.Version,
		utc(ledger.CreatedAt),
		ledger.CreatedBy,
		utc(ledger.LastUpdatedAt),
		ledger.LastUpdatedBy,
	)

	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) {
			if sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
				return apperrors.NewConflictError("ledger ID " + ledger.LedgerID + " already exists")
			}
			if sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
				return apperrors.NewValidationFailedError("entity " + ledger.EntityID + " does not exist")
			}
		}
		return fmt.Errorf("failed to save ledger %s: %w", ledger.LedgerID, err)
	}
	return nil
}

func (r *SQLiteLedgerRepository) FindLedgerByID(ctx context.Context, ledgerID string) (*domain.Ledger, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledgers WHERE ledger_id = ?;`
	ledger, err := scanLedgerRow(r.db.QueryRowContext(ctx, query, ledgerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find ledger by ID %s: %w", ledgerID, err)
	}
	return &ledger, nil
}

// ListLedgersByEntityForUser lists the entity's ledgers visible to a user.
// The membership join makes the result empty for non-members and removed
// members, so callers never learn whether the entity has ledgers at all.
func (r *SQLiteLedgerRepository) ListLedgersByEntityForUser(ctx context.Context, entityID, userID string, limit int, nextToken *string, includeHidden bool, posted *bool) ([]domain.Ledger, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1 // Fetch one extra to detect whether there is a next page

	query := `
		SELECT l.ledger_id, l.entity_id, l.name, l.description, l.posted, l.locked, l.hidden, l.version,
		       l.created_at, l.created_by, l.last_updated_at, l.last_updated_by
		FROM ledgers l
		JOIN user_entities ue ON ue.entity_id = l.entity_id
		WHERE l.entity_id = ? AND ue.user_id = ? AND ue.role != ?
	`
	args := []any{entityID, userID, domain.RoleRemoved}

	if !includeHidden {
		query += ` AND l.hidden = 0`
	}
	if posted != nil {
		query += ` AND l.posted = ?`
		args = append(args, *posted)
	}

	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, err := pagination.DecodeDateBasedToken(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewValidationFailedError("invalid pagination token")
		}
		query += ` AND l.created_at < ?`
		args = append(args, utc(lastCreatedAt))
	}

	query += ` ORDER BY l.created_at DESC LIMIT ?;`
	args = append(args, fetchLimit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query ledgers for entity %s: %w", entityID, err)
	}
	defer rows.Close()

	ledgers := []domain.Ledger{}
	for rows.Next() {
		ledger, scanErr := scanLedgerRow(rows)
		if scanErr != nil {
			return nil, nil, fmt.Errorf("failed to scan ledger row: %w", scanErr)
		}
		ledgers = append(ledgers, ledger)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating ledger rows: %w", err)
	}

	var newNextToken *string
	if len(ledgers) == fetchLimit {
		ledgers = ledgers[:limit]
		token := pagination.EncodeDateBasedToken(ledgers[limit-1].CreatedAt)
		newNextToken = &token
	}

	return ledgers, newNextToken, nil
}

func (r *SQLiteLedgerRepository) UpdateLedgerState(ctx context.Context, ledger domain.Ledger) error {
	query := `
		UPDATE ledgers
		SET posted = ?, locked = ?, last_updated_at = ?, last_updated_by = ?, version = version + 1
		WHERE ledger_id = ? AND version = ?;
	`
	result, err := r.db.ExecContext(ctx, query,
		ledger.Posted,
		ledger.Locked,
		utc(ledger.LastUpdatedAt),
		ledger.LastUpdatedBy,
		ledger.LedgerID,
		ledger.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update state of ledger %s: %w", ledger.LedgerID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected for ledger %s: %w", ledger.LedgerID, err)
	}
	if affected == 0 {
		return apperrors.NewConflictError("ledger " + ledger.LedgerID + " was modified concurrently")
	}

	return nil
}

func (r *SQLiteLedgerRepository) UpdateLedgerDetails(ctx context.Context, ledger domain.Ledger) error {
	query := `
		UPDATE ledgers
		SET name = ?, description = ?, hidden = ?, last_updated_at = ?, last_updated_by = ?
		WHERE ledger_id = ?;
	`
	result, err := r.db.ExecContext(ctx, query,
		ledger.Name,
		ledger.Description,
		ledger.Hidden,
		utc(ledger.LastUpdatedAt),
		ledger.LastUpdatedBy,
		ledger.LedgerID,
	)
	if err != nil {
		return fmt.Errorf("failed to update details of ledger %s: %w", ledger.LedgerID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected for ledger %s: %w", ledger.LedgerID, err)
	}
	if affected == 0 {
		return apperrors.NewNotFoundError("ledger " + ledger.LedgerID + " not found")
	}

	return nil
}

// DeleteLedger removes the ledger and everything recorded in it inside a
// single transaction.
func (r *SQLiteLedgerRepository) DeleteLedger(ctx context.Context, ledgerID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	deleteTransactionsQuery := `
		DELETE FROM transactions
		WHERE journal_entry_id IN (
			SELECT journal_entry_id FROM journal_entries WHERE ledger_id = ?
		);
	`
	if _, err := tx.ExecContext(ctx, deleteTransactionsQuery, ledgerID); err != nil {
		return fmt.Errorf("failed to delete transactions of ledger %s: %w", ledgerID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM journal_entries WHERE ledger_id = ?;`, ledgerID); err != nil {
		return fmt.Errorf("failed to delete journal entries of ledger %s: %w", ledgerID, err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM ledgers WHERE ledger_id = ?;`, ledgerID)
	if err != nil {
		return fmt.Errorf("failed to delete ledger %s: %w", ledgerID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected for ledger %s: %w", ledgerID, err)
	}
	if affected == 0 {
		return apperrors.NewNotFoundError("ledger " + ledgerID + " not found")
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ledger deletion: %w", err)
	}
	return nil
}
