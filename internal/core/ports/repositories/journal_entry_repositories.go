package repositories

import (
	"context"
	"time"

	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
)

// JournalEntryReader defines read operations for journal entry data
type JournalEntryReader interface {
	// FindEntryByID retrieves a specific journal entry by its unique identifier.
	FindEntryByID(ctx context.Context, journalEntryID string) (*domain.JournalEntry, error)

	// FindMostRecentPostedEntry retrieves the posted entry with the latest
	// timestamp in a ledger. Returns ErrNotFound when the ledger has no posted entries.
	FindMostRecentPostedEntry(ctx context.Context, ledgerID string) (*domain.JournalEntry, error)

	// ListEntriesByLedger retrieves a paginated list of journal entries for a given ledger
	// using token-based pagination. It returns the entries, a token for the next page, and an error.
	ListEntriesByLedger(ctx context.Context, ledgerID string, limit int, nextToken *string, includeReversals bool) ([]domain.JournalEntry, *string, error)
}

// JournalEntryWriter defines write operations for journal entry data
type JournalEntryWriter interface {
	// SaveEntry persists a journal entry and its transactions atomically.
	SaveEntry(ctx context.Context, entry domain.JournalEntry, transactions []domain.Transaction) error

	// UpdateEntryPostedAndLinks updates the posted flag and the reversal linkage
	// (original/reversing IDs) of a journal entry.
	UpdateEntryPostedAndLinks(ctx context.Context, journalEntryID string, posted bool, reversingEntryID *string, originalEntryID *string, updatedByUserID string, updatedAt time.Time) error
}

// EntryTransactionReader defines read operations for transaction data
type EntryTransactionReader interface {
	// FindTransactionsByEntryID retrieves all transactions associated with a single journal entry ID.
	FindTransactionsByEntryID(ctx context.Context, journalEntryID string) ([]domain.Transaction, error)

	// FindTransactionsByEntryIDs retrieves transactions for multiple journal entry IDs, grouped by entry ID.
	FindTransactionsByEntryIDs(ctx context.Context, journalEntryIDs []string) (map[string][]domain.Transaction, error)

	// ListTransactionsByAccountID retrieves a paginated list of transactions for a specific account
	// using token-based pagination. It returns the transactions, a token for the next page, and an error.
	ListTransactionsByAccountID(ctx context.Context, entityID, accountID string, limit int, nextToken *string) ([]domain.Transaction, *string, error)
}

// JournalEntryRepositoryFacade combines all journal-entry-related repository interfaces
// This is a facade for clients that need access to all operations
type JournalEntryRepositoryFacade interface {
	JournalEntryReader
	JournalEntryWriter
	EntryTransactionReader
}

// JournalEntryRepositoryWithTx extends JournalEntryRepositoryFacade with transaction capabilities
type JournalEntryRepositoryWithTx interface {
	JournalEntryRepositoryFacade
	TransactionManager
}
