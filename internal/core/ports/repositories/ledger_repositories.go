package repositories

import (
	"context"

	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
)

// LedgerReader defines read operations for ledger data
type LedgerReader interface {
	// FindLedgerByID retrieves a specific ledger by its unique identifier.
	FindLedgerByID(ctx context.Context, ledgerID string) (*domain.Ledger, error)

	// ListLedgersByEntityForUser retrieves a paginated list of ledgers visible to a user
	// within an entity using token-based pagination. Visibility requires an active
	// ADMIN or MANAGER membership, so the result is empty for non-members.
	// Hidden ledgers are excluded unless includeHidden is set, and posted filters
	// on the posted flag when non-nil.
	ListLedgersByEntityForUser(ctx context.Context, entityID, userID string, limit int, nextToken *string, includeHidden bool, posted *bool) ([]domain.Ledger, *string, error)
}

// LedgerWriter defines write operations for ledger data
type LedgerWriter interface {
	// SaveLedger persists a new ledger.
	SaveLedger(ctx context.Context, ledger domain.Ledger) error

	// UpdateLedgerState persists the ledger's posted and locked flags.
	// The update is guarded by the ledger's version for optimistic locking and
	// fails with a conflict when a concurrent writer got there first.
	UpdateLedgerState(ctx context.Context, ledger domain.Ledger) error

	// UpdateLedgerDetails updates non-lifecycle fields (name, description, hidden).
	UpdateLedgerDetails(ctx context.Context, ledger domain.Ledger) error

	// DeleteLedger removes the ledger together with its journal entries and
	// their transactions.
	DeleteLedger(ctx context.Context, ledgerID string) error
}

// LedgerRepositoryFacade combines all ledger-related repository interfaces
// This is a facade for clients that need access to all operations
type LedgerRepositoryFacade interface {
	LedgerReader
	LedgerWriter
}

// LedgerRepositoryWithTx extends LedgerRepositoryFacade with transaction capabilities
type LedgerRepositoryWithTx interface {
	LedgerRepositoryFacade
	TransactionManager
}
