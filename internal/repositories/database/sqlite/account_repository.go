package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/ledgerkeep/ledgerkeep/internal/apperrors"
	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
	portsrepo "github.com/ledgerkeep/ledgerkeep/internal/core/ports/repositories"
)

type SQLiteAccountRepository struct {
	db *sql.DB
}

// newSQLiteAccountRepository creates a new repository for account data.
func newSQLiteAccountRepository(db *sql.DB) portsrepo.AccountRepositoryFacade {
	return &SQLiteAccountRepository{db: db}
}

// Ensure SQLiteAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*SQLiteAccountRepository)(nil)

const accountColumns = `account_id, entity_id, name, account_type, parent_account_id, description, is_active,
	       created_at, created_by, last_updated_at, last_updated_by`

// scanAccountRow scans one account row. ParentAccountID is a pointer, so a
// NULL parent scans to nil without an intermediate nullable type.
func scanAccountRow(row rowScanner) (domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.AccountID,
		&a.EntityID,
		&a.Name,
		&a.AccountType,
		&a.ParentAccountID,
		&a.Description,
		&a.IsActive,
		&a.CreatedAt,
		&a.CreatedBy,
		&a.LastUpdatedAt,
		&a.LastUpdatedBy,
	)
	return a, err
}

// SaveAccount inserts a new account. Balances are never stored on the row,
// they are derived from posted transactions when reports run.
func (r *SQLiteAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	_, err := r.db.ExecContext(ctx, query,
		account.AccountID,
		account.EntityID,
		account.Name,
		account.AccountType,
		account.ParentAccountID,
		account.Description,
		account.IsActive,
		utc(account.CreatedAt),
		account.CreatedBy,
		utc(account.LastUpdatedAt),
		account.LastUpdatedBy,
	)

	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) {
			if sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
				return fmt.Errorf("%w: account with ID %s already exists", apperrors.ErrDuplicate, account.AccountID)
			}
			if sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
				return apperrors.NewValidationFailedError("entity or parent account does not exist")
			}
		}
		return fmt.Errorf("failed to save account %s: %w", account.AccountID, err)
	}
	return nil
}

// FindAccountByID retrieves an account by its ID.
func (r *SQLiteAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_id = ?;
	`
	account, err := scanAccountRow(r.db.QueryRowContext(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account by ID %s: %w", accountID, err)
	}

	return &account, nil
}

// FindAccountsByIDs retrieves multiple accounts by their IDs.
func (r *SQLiteAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(accountIDs)), ",")
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_id IN (` + placeholders + `);
	`
	args := make([]any, len(accountIDs))
	for i, id := range accountIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts by IDs: %w", err)
	}
	defer rows.Close()

	accountsMap := make(map[string]domain.Account)
	for rows.Next() {
		account, scanErr := scanAccountRow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan account row during batch fetch: %w", scanErr)
		}
		accountsMap[account.AccountID] = account
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows during batch fetch: %w", err)
	}

	// It's possible not all requested IDs were found, the map will simply not contain them.
	// The caller (service) should check if all needed accounts were retrieved.
	return accountsMap, nil
}

// ListAccounts retrieves a paginated list of active accounts for a specific entity.
func (r *SQLiteAccountRepository) ListAccounts(ctx context.Context, entityID string, limit int, offset int) ([]domain.Account, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE is_active = 1 AND entity_id = ?
		ORDER BY name
		LIMIT ? OFFSET ?;
	`

	rows, err := r.db.QueryContext(ctx, query, entityID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts for entity %s: %w", entityID, err)
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		account, scanErr := scanAccountRow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan account row for entity %s: %w", entityID, scanErr)
		}
		accounts = append(accounts, account)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating account rows for entity %s: %w", entityID, rows.Err())
	}

	return accounts, nil
}

// UpdateAccount updates an existing account in the database.
func (r *SQLiteAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	query := `
		UPDATE accounts
		SET name = ?, description = ?, is_active = ?, last_updated_at = ?, last_updated_by = ?
		WHERE account_id = ?;
	`
	// Note: account_type, entity_id and parent_account_id are immutable after creation.

	result, err := r.db.ExecContext(ctx, query,
		account.Name,
		account.Description,
		account.IsActive,
		utc(account.LastUpdatedAt),
		account.LastUpdatedBy,
		account.AccountID,
	)

	if err != nil {
		return fmt.Errorf("failed to execute update account %s: %w", account.AccountID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected for account %s: %w", account.AccountID, err)
	}
	if affected == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// DeactivateAccount marks an account as inactive.
func (r *SQLiteAccountRepository) DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error {
	query := `
		UPDATE accounts
		SET is_active = 0, last_updated_at = ?, last_updated_by = ?
		WHERE account_id = ? AND is_active = 1;
	` // Only update if it was active

	result, err := r.db.ExecContext(ctx, query, utc(now), userID, accountID)
	if err != nil {
		return fmt.Errorf("failed to execute deactivate account %s: %w", accountID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected for account %s: %w", accountID, err)
	}
	if affected == 0 {
		// Zero rows means the account doesn't exist or was already inactive.
		// Distinguish the two for the caller.
		_, findErr := r.FindAccountByID(ctx, accountID)
		if errors.Is(findErr, apperrors.ErrNotFound) {
			return apperrors.ErrNotFound
		} else if findErr != nil {
			return fmt.Errorf("failed to check account status after deactivation attempt for %s: %w", accountID, findErr)
		}
		return apperrors.NewValidationFailedError("account " + accountID + " is already inactive")
	}

	return nil
}
