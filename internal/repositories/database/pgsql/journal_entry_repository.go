package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerkeep/ledgerkeep/internal/apperrors"
	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
	portsrepo "github.com/ledgerkeep/ledgerkeep/internal/core/ports/repositories"
	"github.com/ledgerkeep/ledgerkeep/internal/models"
	"github.com/ledgerkeep/ledgerkeep/internal/utils/mapping"
	"github.com/ledgerkeep/ledgerkeep/internal/utils/pagination"
)

type PgxJournalEntryRepository struct {
	BaseRepository
}

// newPgxJournalEntryRepository creates a new repository for journal entry and transaction data.
func newPgxJournalEntryRepository(pool *pgxpool.Pool) portsrepo.JournalEntryRepositoryWithTx {
	return &PgxJournalEntryRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxJournalEntryRepository implements portsrepo.JournalEntryRepositoryWithTx
var _ portsrepo.JournalEntryRepositoryWithTx = (*PgxJournalEntryRepository)(nil)

// SaveEntry persists a journal entry header and its transaction lines within a
// DB transaction. Audit fields arrive already stamped by the caller.
func (r *PgxJournalEntryRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry, transactions []domain.Transaction) error {
	modelEntry := mapping.ToModelJournalEntry(entry)

	return r.withTx(ctx, func(tx pgx.Tx) error {
		entryQuery := `
			INSERT INTO journal_entries (
				journal_entry_id, ledger_id, entry_timestamp, description, posted, amount,
				original_entry_id, reversing_entry_id,
				created_at, created_by, last_updated_at, last_updated_by
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
		`
		_, err := tx.Exec(ctx, entryQuery,
			modelEntry.JournalEntryID,
			modelEntry.LedgerID,
			modelEntry.Timestamp,
			modelEntry.Description,
			modelEntry.Posted,
			modelEntry.Amount,
			modelEntry.OriginalEntryID,
			modelEntry.ReversingEntryID,
			modelEntry.CreatedAt,
			modelEntry.CreatedBy,
			modelEntry.LastUpdatedAt,
			modelEntry.LastUpdatedBy,
		)
		if err != nil {
			return apperrors.NewAppError(500, "failed to insert journal entry "+modelEntry.JournalEntryID, err)
		}

		batch := &pgx.Batch{}
		txnQuery := `
			INSERT INTO transactions (
				transaction_id, journal_entry_id, account_id, amount, transaction_type, notes,
				created_at, created_by, last_updated_at, last_updated_by
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
		`
		for _, txn := range transactions {
			modelTxn := mapping.ToModelTransaction(txn)
			batch.Queue(txnQuery,
				modelTxn.TransactionID,
				modelTxn.JournalEntryID,
				modelTxn.AccountID,
				modelTxn.Amount,
				modelTxn.TransactionType,
				modelTxn.Notes,
				modelTxn.CreatedAt,
				modelTxn.CreatedBy,
				modelTxn.LastUpdatedAt,
				modelTxn.LastUpdatedBy,
			)
		}

		// Closing the batch results surfaces errors from the individual inserts.
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return apperrors.NewAppError(500, "failed to insert transactions of journal entry "+modelEntry.JournalEntryID, err)
		}
		return nil
	})
}

// scanEntryRow scans one journal entry row, handling the nullable reversal
// link columns.
func scanEntryRow(row pgx.Row) (models.JournalEntry, error) {
	var m models.JournalEntry
	var originalID sql.NullString
	var reversingID sql.NullString

	err := row.Scan(
		&m.JournalEntryID,
		&m.LedgerID,
		&m.Timestamp,
		&m.Description,
		&m.Posted,
		&m.Amount,
		&originalID,
		&reversingID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return models.JournalEntry{}, err
	}

	if originalID.Valid {
		m.OriginalEntryID = &originalID.String
	}
	if reversingID.Valid {
		m.ReversingEntryID = &reversingID.String
	}
	return m, nil
}

const entryColumns = `journal_entry_id, ledger_id, entry_timestamp, description, posted, amount,
	       original_entry_id, reversing_entry_id,
	       created_at, created_by, last_updated_at, last_updated_by`

// FindEntryByID retrieves a journal entry by its ID.
func (r *PgxJournalEntryRepository) FindEntryByID(ctx context.Context, journalEntryID string) (*domain.JournalEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM journal_entries
		WHERE journal_entry_id = $1;
	`
	m, err := scanEntryRow(r.Pool.QueryRow(ctx, query, journalEntryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find journal entry by ID "+journalEntryID, err)
	}

	domainEntry := mapping.ToDomainJournalEntry(m)
	return &domainEntry, nil
}

// FindMostRecentPostedEntry retrieves the posted entry with the latest
// accounting timestamp in a ledger. The ledger deletion guard compares this
// entry's timestamp against the entity closing date.
func (r *PgxJournalEntryRepository) FindMostRecentPostedEntry(ctx context.Context, ledgerID string) (*domain.JournalEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM journal_entries
		WHERE ledger_id = $1 AND posted = true
		ORDER BY entry_timestamp DESC, created_at DESC
		LIMIT 1;
	`
	m, err := scanEntryRow(r.Pool.QueryRow(ctx, query, ledgerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find most recent posted entry for ledger "+ledgerID, err)
	}

	domainEntry := mapping.ToDomainJournalEntry(m)
	return &domainEntry, nil
}

// ListEntriesByLedger retrieves a paginated list of journal entries for a ledger
// using token-based pagination. It returns the entries, a token for the next page, and an error.
func (r *PgxJournalEntryRepository) ListEntriesByLedger(ctx context.Context, ledgerID string, limit int, nextToken *string, includeReversals bool) ([]domain.JournalEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// We fetch one extra item to determine if there's a next page.
	fetchLimit := limit + 1

	baseQuery := `
		SELECT ` + entryColumns + `
		FROM journal_entries
	`
	filterClause := `WHERE ledger_id = $1`
	if !includeReversals {
		// Hide both sides of a reversal pair from the default listing.
		filterClause += ` AND original_entry_id IS NULL AND reversing_entry_id IS NULL`
	}

	// Ordering is crucial and must be stable.
	// We use entry_timestamp DESC, and created_at DESC as a tie-breaker.
	orderByClause := `ORDER BY entry_timestamp DESC, created_at DESC`

	args := []any{ledgerID}

	if nextToken != nil && *nextToken != "" {
		lastTimestamp, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}

		// Tuple comparison is concise and efficient in Postgres
		filterClause += ` AND (entry_timestamp, created_at) < ($2, $3)`
		args = append(args, lastTimestamp, lastCreatedAt)
	}

	query := baseQuery + " " + filterClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query journal entries for ledger "+ledgerID, err)
	}
	defer rows.Close()

	modelEntries := make([]models.JournalEntry, 0, fetchLimit)
	for rows.Next() {
		m, scanErr := scanEntryRow(rows)
		if scanErr != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan journal entry row for ledger "+ledgerID, scanErr)
		}
		modelEntries = append(modelEntries, m)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating journal entry rows for ledger "+ledgerID, err)
	}

	// Determine the next token
	var nextTokenVal *string
	results := modelEntries
	if len(modelEntries) > limit {
		// The token points to the last item included in this response page.
		// The next query will start after this item.
		lastEntry := modelEntries[limit-1]
		newToken := pagination.EncodeToken(lastEntry.Timestamp, lastEntry.CreatedAt)
		nextTokenVal = &newToken
		results = modelEntries[:limit]
	}

	domainEntries := make([]domain.JournalEntry, len(results))
	for i, m := range results {
		domainEntries[i] = mapping.ToDomainJournalEntry(m)
	}

	return domainEntries, nextTokenVal, nil
}

// UpdateEntryPostedAndLinks updates the posted flag and the reversal links for a journal entry.
func (r *PgxJournalEntryRepository) UpdateEntryPostedAndLinks(ctx context.Context, journalEntryID string, posted bool, reversingEntryID *string, originalEntryID *string, updatedByUserID string, updatedAt time.Time) error {
	query := `
		UPDATE journal_entries
		SET posted = $2,
		    reversing_entry_id = $3,
		    original_entry_id = $4,
		    last_updated_at = $5,
		    last_updated_by = $6
		WHERE journal_entry_id = $1;
	`

	cmdTag, err := r.Pool.Exec(ctx, query,
		journalEntryID,
		posted,
		reversingEntryID,
		originalEntryID,
		updatedAt,
		updatedByUserID,
	)

	if err != nil {
		return apperrors.NewAppError(500, "failed to update posted flag/links for journal entry "+journalEntryID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("journal entry " + journalEntryID + " not found for update")
	}

	return nil
}

const transactionColumns = `transaction_id, journal_entry_id, account_id, amount, transaction_type, notes,
	       created_at, created_by, last_updated_at, last_updated_by`

func scanTransactionRow(row pgx.Row) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(
		&t.TransactionID,
		&t.JournalEntryID,
		&t.AccountID,
		&t.Amount,
		&t.TransactionType,
		&t.Notes,
		&t.CreatedAt,
		&t.CreatedBy,
		&t.LastUpdatedAt,
		&t.LastUpdatedBy,
	)
	return t, err
}

// FindTransactionsByEntryID retrieves all transactions associated with a specific journal entry.
func (r *PgxJournalEntryRepository) FindTransactionsByEntryID(ctx context.Context, journalEntryID string) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE journal_entry_id = $1
		ORDER BY created_at;
	`
	rows, err := r.Pool.Query(ctx, query, journalEntryID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query transactions for journal entry "+journalEntryID, err)
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		t, scanErr := scanTransactionRow(rows)
		if scanErr != nil {
			return nil, apperrors.NewAppError(500, "failed to scan transaction row for journal entry "+journalEntryID, scanErr)
		}
		transactions = append(transactions, t)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating transaction rows for journal entry "+journalEntryID, err)
	}

	return mapping.ToDomainTransactionSlice(transactions), nil
}

// FindTransactionsByEntryIDs retrieves all transactions for a given list of journal entry IDs.
// It returns a map where keys are journal entry IDs and values are slices of transactions.
func (r *PgxJournalEntryRepository) FindTransactionsByEntryIDs(ctx context.Context, journalEntryIDs []string) (map[string][]domain.Transaction, error) {
	if len(journalEntryIDs) == 0 {
		return map[string][]domain.Transaction{}, nil
	}

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE journal_entry_id = ANY($1)
		ORDER BY journal_entry_id, created_at;
	`

	rows, err := r.Pool.Query(ctx, query, journalEntryIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query transactions for journal entry IDs", err)
	}
	defer rows.Close()

	transactionsMap := make(map[string][]domain.Transaction)
	for rows.Next() {
		t, scanErr := scanTransactionRow(rows)
		if scanErr != nil {
			return nil, apperrors.NewAppError(500, "failed to scan transaction row during batch fetch", scanErr)
		}
		domainTxn := mapping.ToDomainTransaction(t)
		transactionsMap[domainTxn.JournalEntryID] = append(transactionsMap[domainTxn.JournalEntryID], domainTxn)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating transaction rows during batch fetch", err)
	}

	// Ensure even entries with no transactions have an entry (empty slice)
	for _, id := range journalEntryIDs {
		if _, exists := transactionsMap[id]; !exists {
			transactionsMap[id] = []domain.Transaction{}
		}
	}

	return transactionsMap, nil
}

// ListTransactionsByAccountID retrieves a paginated list of transactions for a specific account
// using token-based pagination. Only lines of posted entries appear. Reversal
// lines stay in the listing so the history sums to the account's derived balance.
func (r *PgxJournalEntryRepository) ListTransactionsByAccountID(ctx context.Context, entityID, accountID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// We fetch one extra item to determine if there's a next page.
	fetchLimit := limit + 1

	baseQuery := `
		SELECT t.transaction_id, t.journal_entry_id, t.account_id, t.amount, t.transaction_type, t.notes,
		       t.created_at, t.created_by, t.last_updated_at, t.last_updated_by, e.entry_timestamp
		FROM transactions t
		JOIN journal_entries e ON t.journal_entry_id = e.journal_entry_id
		JOIN ledgers l ON e.ledger_id = l.ledger_id
		WHERE t.account_id = $1 AND l.entity_id = $2 AND e.posted = true
	`
	// Ordering is crucial and must be stable.
	// We use entry_timestamp DESC, and created_at DESC as a tie-breaker.
	orderByClause := `ORDER BY e.entry_timestamp DESC, t.created_at DESC`

	args := []any{accountID, entityID}

	if nextToken != nil && *nextToken != "" {
		lastTimestamp, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}

		baseQuery += ` AND (e.entry_timestamp, t.created_at) < ($3, $4)`
		args = append(args, lastTimestamp, lastCreatedAt)
	}

	query := baseQuery + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query transactions for account "+accountID+" in entity "+entityID, err)
	}
	defer rows.Close()

	type txnRow struct {
		txn            models.Transaction
		entryTimestamp time.Time
	}
	scanned := make([]txnRow, 0, fetchLimit)

	for rows.Next() {
		var row txnRow
		err := rows.Scan(
			&row.txn.TransactionID,
			&row.txn.JournalEntryID,
			&row.txn.AccountID,
			&row.txn.Amount,
			&row.txn.TransactionType,
			&row.txn.Notes,
			&row.txn.CreatedAt,
			&row.txn.CreatedBy,
			&row.txn.LastUpdatedAt,
			&row.txn.LastUpdatedBy,
			&row.entryTimestamp,
		)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan transaction row for account "+accountID, err)
		}
		scanned = append(scanned, row)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating transaction rows for account "+accountID, err)
	}

	// Determine the next token
	var nextTokenVal *string
	if len(scanned) > limit {
		lastRow := scanned[limit-1]
		token := pagination.EncodeToken(lastRow.entryTimestamp, lastRow.txn.CreatedAt)
		nextTokenVal = &token
		scanned = scanned[:limit]
	}

	results := make([]models.Transaction, len(scanned))
	for i, row := range scanned {
		results[i] = row.txn
	}

	return mapping.ToDomainTransactionSlice(results), nextTokenVal, nil
}
