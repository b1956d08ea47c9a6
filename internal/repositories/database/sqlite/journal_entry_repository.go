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
	"github.com/ledgerkeep/ledgerkeep/internal/utils/pagination"
)

type SQLiteJournalEntryRepository struct {
	db *sql.DB
}

// newSQLiteJournalEntryRepository creates a new repository for journal entry and transaction data.
func newSQLiteJournalEntryRepository(db *sql.DB) portsrepo.JournalEntryRepositoryFacade {
	return &SQLiteJournalEntryRepository{db: db}
}

// Ensure SQLiteJournalEntryRepository implements portsrepo.JournalEntryRepositoryFacade
var _ portsrepo.JournalEntryRepositoryFacade = (*SQLiteJournalEntryRepository)(nil)

const entryColumns = `journal_entry_id, ledger_id, entry_timestamp, description, posted, amount,
	       original_entry_id, reversing_entry_id,
	       created_at, created_by, last_updated_at, last_updated_by`

func scanEntryRow(row rowScanner) (domain.JournalEntry, error) {
	var e domain.JournalEntry
	var amount string
	var originalID sql.NullString
	var reversingID sql.NullString

	err := row.Scan(
		&e.JournalEntryID,
		&e.LedgerID,
		&e.Timestamp,
		&e.Description,
		&e.Posted,
		&amount,
		&originalID,
		&reversingID,
		&e.CreatedAt,
		&e.CreatedBy,
		&e.LastUpdatedAt,
		&e.LastUpdatedBy,
	)
	if err != nil {
		return domain.JournalEntry{}, err
	}

	e.Amount, err = parseDecimal(amount)
	if err != nil {
		return domain.JournalEntry{}, err
	}
	if originalID.Valid {
		e.OriginalEntryID = &originalID.String
	}
	if reversingID.Valid {
		e.ReversingEntryID = &reversingID.String
	}
	return e, nil
}

// SaveEntry persists a journal entry header and its transaction lines within a
// DB transaction.
func (r *SQLiteJournalEntryRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry, transactions []domain.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	entryQuery := `
		INSERT INTO journal_entries (` + entryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	_, err = tx.ExecContext(ctx, entryQuery,
		entry.JournalEntryID,
		entry.LedgerID,
		utc(entry.Timestamp),
		entry.Description,
		entry.Posted,
		entry.Amount.String(),
		entry.OriginalEntryID,
		entry.ReversingEntryID,
		utc(entry.CreatedAt),
		entry.CreatedBy,
		utc(entry.LastUpdatedAt),
		entry.LastUpdatedBy,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
			return apperrors.NewValidationFailedError("ledger " + entry.LedgerID + " does not exist")
		}
		return fmt.Errorf("failed to insert journal entry %s: %w", entry.JournalEntryID, err)
	}

	txnQuery := `
		INSERT INTO transactions (
			transaction_id, journal_entry_id, account_id, amount, transaction_type, notes,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	for _, txn := range transactions {
		_, err := tx.ExecContext(ctx, txnQuery,
			txn.TransactionID,
			txn.JournalEntryID,
			txn.AccountID,
			txn.Amount.String(),
			txn.TransactionType,
			txn.Notes,
			utc(txn.CreatedAt),
			txn.CreatedBy,
			utc(txn.LastUpdatedAt),
			txn.LastUpdatedBy,
		)
		if err != nil {
			var sqliteErr sqlite3.Error
			if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
				return apperrors.NewValidationFailedError("account " + txn.AccountID + " does not exist")
			}
			return fmt.Errorf("failed to insert transaction %s: %w", txn.TransactionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit journal entry %s: %w", entry.JournalEntryID, err)
	}
	return nil
}

func (r *SQLiteJournalEntryRepository) FindEntryByID(ctx context.Context, journalEntryID string) (*domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE journal_entry_id = ?;`
	entry, err := scanEntryRow(r.db.QueryRowContext(ctx, query, journalEntryID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find journal entry by ID %s: %w", journalEntryID, err)
	}
	return &entry, nil
}

func (r *SQLiteJournalEntryRepository) FindMostRecentPostedEntry(ctx context.Context, ledgerID string) (*domain.JournalEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM journal_entries
		WHERE ledger_id = ? AND posted = 1
		ORDER BY entry_timestamp DESC, created_at DESC
		LIMIT 1;
	`
	entry, err := scanEntryRow(r.db.QueryRowContext(ctx, query, ledgerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find most recent posted entry for ledger %s: %w", ledgerID, err)
	}
	return &entry, nil
}

func (r *SQLiteJournalEntryRepository) ListEntriesByLedger(ctx context.Context, ledgerID string, limit int, nextToken *string, includeReversals bool) ([]domain.JournalEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	query := `
		SELECT ` + entryColumns + `
		FROM journal_entries
		WHERE ledger_id = ?
	`
	if !includeReversals {
		// Hide both sides of a reversal pair from the default listing.
		query += ` AND original_entry_id IS NULL AND reversing_entry_id IS NULL`
	}

	args := []any{ledgerID}

	if nextToken != nil && *nextToken != "" {
		lastTimestamp, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewValidationFailedError("invalid pagination token")
		}
		// SQLite has no tuple comparison, expand it by hand.
		query += ` AND (entry_timestamp < ? OR (entry_timestamp = ? AND created_at < ?))`
		args = append(args, utc(lastTimestamp), utc(lastTimestamp), utc(lastCreatedAt))
	}

	query += ` ORDER BY entry_timestamp DESC, created_at DESC LIMIT ?;`
	args = append(args, fetchLimit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query journal entries for ledger %s: %w", ledgerID, err)
	}
	defer rows.Close()

	entries := []domain.JournalEntry{}
	for rows.Next() {
		entry, scanErr := scanEntryRow(rows)
		if scanErr != nil {
			return nil, nil, fmt.Errorf("failed to scan journal entry row: %w", scanErr)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating journal entry rows: %w", err)
	}

	var nextTokenVal *string
	if len(entries) > limit {
		lastEntry := entries[limit-1]
		token := pagination.EncodeToken(lastEntry.Timestamp, lastEntry.CreatedAt)
		nextTokenVal = &token
		entries = entries[:limit]
	}

	return entries, nextTokenVal, nil
}

func (r *SQLiteJournalEntryRepository) UpdateEntryPostedAndLinks(ctx context.Context, journalEntryID string, posted bool, reversingEntryID *string, originalEntryID *string, updatedByUserID string, updatedAt time.Time) error {
	query := `
		UPDATE journal_entries
		SET posted = ?, reversing_entry_id = ?, original_entry_id = ?, last_updated_at = ?, last_updated_by = ?
		WHERE journal_entry_id = ?;
	`
	result, err := r.db.ExecContext(ctx, query,
		posted,
		reversingEntryID,
		originalEntryID,
		utc(updatedAt),
		updatedByUserID,
		journalEntryID,
	)
	if err != nil {
		return fmt.Errorf("failed to update posted flag/links for journal entry %s: %w", journalEntryID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected for journal entry %s: %w", journalEntryID, err)
	}
	if affected == 0 {
		return apperrors.NewNotFoundError("journal entry " + journalEntryID + " not found for update")
	}

	return nil
}

const transactionColumns = `transaction_id, journal_entry_id, account_id, amount, transaction_type, notes,
	       created_at, created_by, last_updated_at, last_updated_by`

func scanTransactionRow(row rowScanner) (domain.Transaction, error) {
	var t domain.Transaction
	var amount string
	err := row.Scan(
		&t.TransactionID,
		&t.JournalEntryID,
		&t.AccountID,
		&amount,
		&t.TransactionType,
		&t.Notes,
		&t.CreatedAt,
		&t.CreatedBy,
		&t.LastUpdatedAt,
		&t.LastUpdatedBy,
	)
	if err != nil {
		return domain.Transaction{}, err
	}
	t.Amount, err = parseDecimal(amount)
	if err != nil {
		return domain.Transaction{}, err
	}
	return t, nil
}

func (r *SQLiteJournalEntryRepository) FindTransactionsByEntryID(ctx context.Context, journalEntryID string) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE journal_entry_id = ?
		ORDER BY created_at;
	`
	rows, err := r.db.QueryContext(ctx, query, journalEntryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions for journal entry %s: %w", journalEntryID, err)
	}
	defer rows.Close()

	transactions := []domain.Transaction{}
	for rows.Next() {
		t, scanErr := scanTransactionRow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", scanErr)
		}
		transactions = append(transactions, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	return transactions, nil
}

func (r *SQLiteJournalEntryRepository) FindTransactionsByEntryIDs(ctx context.Context, journalEntryIDs []string) (map[string][]domain.Transaction, error) {
	if len(journalEntryIDs) == 0 {
		return map[string][]domain.Transaction{}, nil
	}

	placeholders := strings.Repeat("?,", len(journalEntryIDs))
	placeholders = placeholders[:len(placeholders)-1]

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE journal_entry_id IN (` + placeholders + `)
		ORDER BY journal_entry_id, created_at;
	`
	args := make([]any, len(journalEntryIDs))
	for i, id := range journalEntryIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions for journal entry IDs: %w", err)
	}
	defer rows.Close()

	transactionsMap := make(map[string][]domain.Transaction)
	for rows.Next() {
		t, scanErr := scanTransactionRow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan transaction row during batch fetch: %w", scanErr)
		}
		transactionsMap[t.JournalEntryID] = append(transactionsMap[t.JournalEntryID], t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows during batch fetch: %w", err)
	}

	// Ensure even entries with no transactions have an entry (empty slice)
	for _, id := range journalEntryIDs {
		if _, exists := transactionsMap[id]; !exists {
			transactionsMap[id] = []domain.Transaction{}
		}
	}

	return transactionsMap, nil
}

// ListTransactionsByAccountID retrieves a paginated list of transactions for a
// specific account. Only lines of posted entries appear. Reversal lines stay
// in the listing so the history sums to the account's derived balance.
func (r *SQLiteJournalEntryRepository) ListTransactionsByAccountID(ctx context.Context, entityID, accountID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	query := `
		SELECT t.transaction_id, t.journal_entry_id, t.account_id, t.amount, t.transaction_type, t.notes,
		       t.created_at, t.created_by, t.last_updated_at, t.last_updated_by, e.entry_timestamp
		FROM transactions t
		JOIN journal_entries e ON t.journal_entry_id = e.journal_entry_id
		JOIN ledgers l ON e.ledger_id = l.ledger_id
		WHERE t.account_id = ? AND l.entity_id = ? AND e.posted = 1
	`
	args := []any{accountID, entityID}

	if nextToken != nil && *nextToken != "" {
		lastTimestamp, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewValidationFailedError("invalid pagination token")
		}
		query += ` AND (e.entry_timestamp < ? OR (e.entry_timestamp = ? AND t.created_at < ?))`
		args = append(args, utc(lastTimestamp), utc(lastTimestamp), utc(lastCreatedAt))
	}

	query += ` ORDER BY e.entry_timestamp DESC, t.created_at DESC LIMIT ?;`
	args = append(args, fetchLimit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query transactions for account %s in entity %s: %w", accountID, entityID, err)
	}
	defer rows.Close()

	type txnRow struct {
		txn            domain.Transaction
		entryTimestamp time.Time
	}
	scanned := make([]txnRow, 0, fetchLimit)

	for rows.Next() {
		var row txnRow
		var amount string
		err := rows.Scan(
			&row.txn.TransactionID,
			&row.txn.JournalEntryID,
			&row.txn.AccountID,
			&amount,
			&row.txn.TransactionType,
			&row.txn.Notes,
			&row.txn.CreatedAt,
			&row.txn.CreatedBy,
			&row.txn.LastUpdatedAt,
			&row.txn.LastUpdatedBy,
			&row.entryTimestamp,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan transaction row for account %s: %w", accountID, err)
		}
		row.txn.Amount, err = parseDecimal(amount)
		if err != nil {
			return nil, nil, err
		}
		scanned = append(scanned, row)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating transaction rows for account %s: %w", accountID, err)
	}

	var nextTokenVal *string
	if len(scanned) > limit {
		lastRow := scanned[limit-1]
		token := pagination.EncodeToken(lastRow.entryTimestamp, lastRow.txn.CreatedAt)
		nextTokenVal = &token
		scanned = scanned[:limit]
	}

	results := make([]domain.Transaction, len(scanned))
	for i, row := range scanned {
		results[i] = row.txn
	}

	return results, nextTokenVal, nil
}
