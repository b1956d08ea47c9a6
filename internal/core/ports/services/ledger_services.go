package services

import (
	"context"

	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
	"github.com/ledgerkeep/ledgerkeep/internal/dto"
)

// LedgerReaderSvc defines read operations for ledger data
type LedgerReaderSvc interface {
	// GetLedgerByID retrieves a specific ledger by its ID.
	GetLedgerByID(ctx context.Context, entityID string, ledgerID string, requestingUserID string) (*domain.Ledger, error)

	// ListLedgers retrieves a paginated list of ledgers in an entity that are
	// visible to the user. Users without an active ADMIN or MANAGER role
	// receive an empty list, never an error.
	ListLedgers(ctx context.Context, entityID string, userID string, params dto.ListLedgersParams) (*dto.ListLedgersResponse, error)
}

// LedgerWriterSvc defines write operations for ledger data
type LedgerWriterSvc interface {
	// CreateLedger persists a new ledger in the unposted state.
	CreateLedger(ctx context.Context, entityID string, req dto.CreateLedgerRequest, creatorUserID string) (*domain.Ledger, error)

	// UpdateLedger updates ledger details (name, description, hidden flag).
	UpdateLedger(ctx context.Context, entityID string, ledgerID string, req dto.UpdateLedgerRequest, requestingUserID string) (*domain.Ledger, error)

	// DeleteLedger destroys an unposted, unlocked ledger together with its
	// journal entries and transactions. Deletion is refused while the ledger
	// is posted or locked, or when a posted entry falls within the entity's
	// closed period.
	DeleteLedger(ctx context.Context, entityID string, ledgerID string, requestingUserID string) error
}

// LedgerLifecycleSvc defines the posting and locking state transitions.
// Each transition checks its precondition first and silently skips the change
// when it does not hold, returning the unchanged ledger. With commit set the
// new state is persisted under optimistic locking; without it the returned
// ledger carries the new state in memory only.
type LedgerLifecycleSvc interface {
	// PostLedger marks the ledger posted.
	PostLedger(ctx context.Context, entityID string, ledgerID string, requestingUserID string, commit bool) (*domain.Ledger, error)

	// UnpostLedger returns the ledger to the unposted state unless locked.
	UnpostLedger(ctx context.Context, entityID string, ledgerID string, requestingUserID string, commit bool) (*domain.Ledger, error)

	// LockLedger freezes a posted ledger against further state changes.
	LockLedger(ctx context.Context, entityID string, ledgerID string, requestingUserID string, commit bool) (*domain.Ledger, error)

	// UnlockLedger releases a locked ledger.
	UnlockLedger(ctx context.Context, entityID string, ledgerID string, requestingUserID string, commit bool) (*domain.Ledger, error)
}

// LedgerSvcFacade combines all ledger-related service interfaces
// This is a facade for clients that need access to all operations
type LedgerSvcFacade interface {
	LedgerReaderSvc
	LedgerWriterSvc
	LedgerLifecycleSvc
}
