package services

import (
	"context"

	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
	"github.com/ledgerkeep/ledgerkeep/internal/dto"
)

// JournalEntryReaderSvc defines read operations for journal entry data
type JournalEntryReaderSvc interface {
	// GetEntryByID retrieves a specific journal entry by its ID, including its transactions.
	GetEntryByID(ctx context.Context, entityID string, journalEntryID string, requestingUserID string) (*domain.JournalEntry, error)

	// ListEntries retrieves a paginated list of journal entries in a ledger.
	ListEntries(ctx context.Context, entityID string, ledgerID string, userID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)
}

// JournalEntryWriterSvc defines write operations for journal entry data
type JournalEntryWriterSvc interface {
	// CreateEntry persists a new balanced journal entry as a draft.
	// Entries dated within the entity's closed period are refused, as are
	// entries against a locked ledger.
	CreateEntry(ctx context.Context, entityID string, ledgerID string, req dto.CreateJournalEntryRequest, creatorUserID string) (*domain.JournalEntry, error)

	// PostEntry marks a draft entry as posted. Posting an already posted
	// entry is a no-op.
	PostEntry(ctx context.Context, entityID string, journalEntryID string, requestingUserID string) (*domain.JournalEntry, error)

	// ReverseEntry creates a posted reversal entry mirroring an existing
	// posted entry and links the two.
	ReverseEntry(ctx context.Context, entityID string, journalEntryID string, requestingUserID string) (*domain.JournalEntry, error)
}

// EntryTransactionReaderSvc defines read operations for transaction data
type EntryTransactionReaderSvc interface {
	// ListTransactionsByAccount retrieves transactions for a specific account.
	ListTransactionsByAccount(ctx context.Context, entityID string, accountID string, userID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)
}

// JournalEntrySvcFacade combines all journal-entry-related service interfaces
// This is a facade for clients that need access to all operations
type JournalEntrySvcFacade interface {
	JournalEntryReaderSvc
	JournalEntryWriterSvc
	EntryTransactionReaderSvc
}
