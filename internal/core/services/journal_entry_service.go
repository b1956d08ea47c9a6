package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerkeep/ledgerkeep/internal/apperrors"
	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
	portsrepo "github.com/ledgerkeep/ledgerkeep/internal/core/ports/repositories"
	portssvc "github.com/ledgerkeep/ledgerkeep/internal/core/ports/services"
	"github.com/ledgerkeep/ledgerkeep/internal/dto"
	"github.com/ledgerkeep/ledgerkeep/internal/utils/accounting"
)

var (
	ErrEntryMinAccounts   = errors.New("journal entry must affect at least two different accounts")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAlreadyReversed    = errors.New("journal entry has already been reversed")
	ErrReversalOfReversal = errors.New("cannot reverse a journal entry that is itself a reversal")
)

// journalEntryService provides core journal entry and transaction operations.
type journalEntryService struct {
	BaseService
	entryRepo  portsrepo.JournalEntryRepositoryFacade
	ledgerRepo portsrepo.LedgerReader
	entityRepo portsrepo.EntityReader
	accountSvc portssvc.AccountSvcFacade
}

// JournalEntryServiceOption is a functional option for configuring the journal entry service
type JournalEntryServiceOption func(*journalEntryService)

// WithEntryEntityAuthorizer adds entity authorizer dependency
func WithEntryEntityAuthorizer(authorizer portssvc.EntityAuthorizerSvc) JournalEntryServiceOption {
	return func(s *journalEntryService) {
		s.EntityAuthorizer = authorizer
	}
}

// NewJournalEntryService creates a new journal entry service with the provided options
func NewJournalEntryService(
	entryRepo portsrepo.JournalEntryRepositoryFacade,
	ledgerRepo portsrepo.LedgerReader,
	entityRepo portsrepo.EntityReader,
	accountSvc portssvc.AccountSvcFacade,
	options ...JournalEntryServiceOption,
) portssvc.JournalEntrySvcFacade {
	svc := &journalEntryService{
		entryRepo:  entryRepo,
		ledgerRepo: ledgerRepo,
		entityRepo: entityRepo,
		accountSvc: accountSvc,
	}

	// Apply all options
	for _, option := range options {
		option(svc)
	}

	return svc
}

// Ensure journalEntryService implements the JournalEntrySvcFacade interface
var _ portssvc.JournalEntrySvcFacade = (*journalEntryService)(nil)

// loadLedgerForEntity fetches a ledger and verifies it belongs to the entity.
func (s *journalEntryService) loadLedgerForEntity(ctx context.Context, entityID, ledgerID string) (*domain.Ledger, error) {
	ledger, err := s.ledgerRepo.FindLedgerByID(ctx, ledgerID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find ledger",
				slog.String("ledger_id", ledgerID))
		}
		return nil, err
	}
	if ledger.EntityID != entityID {
		return nil, apperrors.ErrNotFound // Obscure existence
	}
	return ledger, nil
}

// checkOpenPeriod refuses entry timestamps that fall inside the entity's
// closed accounting period.
func (s *journalEntryService) checkOpenPeriod(ctx context.Context, entityID string, timestamp time.Time) error {
	entity, err := s.entityRepo.FindEntityByID(ctx, entityID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to load entity for closed period check",
				slog.String("entity_id", entityID))
		}
		return err
	}
	if entity.IsClosedFor(timestamp) {
		return &apperrors.ClosedPeriodViolationError{
			EntryTimestamp: timestamp,
			ClosingDate:    *entity.LastClosingDate,
		}
	}
	return nil
}

// CreateEntry creates a new draft journal entry with its transactions after validation.
// Implements portssvc.JournalEntrySvcFacade
func (s *journalEntryService) CreateEntry(ctx context.Context, entityID string, ledgerID string, req dto.CreateJournalEntryRequest, creatorUserID string) (*domain.JournalEntry, error) {
	if err := s.AuthorizeUser(ctx, creatorUserID, entityID, domain.RoleManager); err != nil {
		return nil, err
	}

	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	// Check that transactions involve at least 2 different accounts
	accountSet := make(map[string]bool)
	for _, txn := range req.Transactions {
		accountSet[txn.AccountID] = true
	}
	if len(accountSet) < 2 {
		return nil, ErrEntryMinAccounts
	}

	ledger, err := s.loadLedgerForEntity(ctx, entityID, ledgerID)
	if err != nil {
		return nil, err
	}
	if ledger.Locked {
		return nil, fmt.Errorf("%w: ledger %q is locked", apperrors.ErrConflict, ledger.Name)
	}

	if err := s.checkOpenPeriod(ctx, entityID, req.Timestamp); err != nil {
		return nil, err
	}

	now := time.Now()
	journalEntryID := uuid.NewString()

	// Prepare domain transactions from DTO
	domainTransactions := make([]domain.Transaction, len(req.Transactions))
	accountIDs := make([]string, 0, len(req.Transactions))
	for i, txnReq := range req.Transactions {
		if txnReq.Amount.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: transaction amount must be positive for account %s", apperrors.ErrValidation, txnReq.AccountID)
		}

		domainTransactions[i] = domain.Transaction{
			TransactionID:   uuid.NewString(),
			JournalEntryID:  journalEntryID,
			AccountID:       txnReq.AccountID,
			Amount:          txnReq.Amount,
			TransactionType: txnReq.TransactionType,
			Notes:           txnReq.Notes,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     creatorUserID,
				LastUpdatedAt: now,
				LastUpdatedBy: creatorUserID,
			},
		}
		accountIDs = append(accountIDs, txnReq.AccountID)
	}

	// --- Fetch Accounts and Validate Further ---
	uniqueAccountIDs := uniqueStrings(accountIDs)
	accountsMap, err := s.accountSvc.GetAccountByIDs(ctx, entityID, uniqueAccountIDs, creatorUserID)
	if err != nil {
		s.LogError(ctx, err, "Failed to fetch accounts for entry creation",
			slog.String("entity_id", entityID))
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}

	accountTypes := make(map[string]domain.AccountType)
	for _, id := range uniqueAccountIDs {
		acc, found := accountsMap[id]
		if !found {
			return nil, fmt.Errorf("%w: ID %s", ErrAccountNotFound, id)
		}
		if acc.EntityID != entityID {
			s.LogDebug(ctx, "Account used in entry belongs to a different entity",
				slog.String("account_id", id),
				slog.String("account_entity", acc.EntityID),
				slog.String("entry_entity", entityID))
			return nil, fmt.Errorf("%w: account %s does not belong to entity %s", ErrAccountNotFound, id, entityID)
		}
		if !acc.IsActive {
			return nil, fmt.Errorf("%w: account %s is inactive", apperrors.ErrValidation, id)
		}
		accountTypes[id] = acc.AccountType
	}

	// Validate balance (double-entry check)
	if err := accounting.ValidateEntryBalance(domainTransactions, accountTypes); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	// --- Persistence ---
	entry := domain.JournalEntry{
		JournalEntryID: journalEntryID,
		LedgerID:       ledgerID,
		Timestamp:      req.Timestamp,
		Description:    req.Description,
		Posted:         false, // Entries start as drafts
		Amount:         calculateEntryAmount(domainTransactions),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.entryRepo.SaveEntry(ctx, entry, domainTransactions); err != nil {
		s.LogError(ctx, err, "Failed to save journal entry",
			slog.String("journal_entry_id", journalEntryID),
			slog.String("ledger_id", ledgerID))
		return nil, fmt.Errorf("failed to save journal entry: %w", err)
	}

	s.LogInfo(ctx, "Journal entry created successfully",
		slog.String("journal_entry_id", journalEntryID),
		slog.String("ledger_id", ledgerID))
	// Return the entry header; callers fetch transactions separately if needed.
	return &entry, nil
}

// PostEntry marks a draft journal entry as posted.
// Posting an already posted entry is a no-op.
// Implements portssvc.JournalEntrySvcFacade
func (s *journalEntryService) PostEntry(ctx context.Context, entityID string, journalEntryID string, requestingUserID string) (*domain.JournalEntry, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, entityID, domain.RoleManager); err != nil {
		return nil, err
	}

	entry, err := s.entryRepo.FindEntryByID(ctx, journalEntryID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find journal entry for posting",
				slog.String("journal_entry_id", journalEntryID))
		}
		return nil, err
	}

	ledger, err := s.loadLedgerForEntity(ctx, entityID, entry.LedgerID)
	if err != nil {
		return nil, err
	}

	if entry.Posted {
		s.LogDebug(ctx, "Journal entry already posted, nothing to do",
			slog.String("journal_entry_id", journalEntryID))
		return entry, nil
	}

	if ledger.Locked {
		return nil, fmt.Errorf("%w: ledger %q is locked", apperrors.ErrConflict, ledger.Name)
	}

	now := time.Now()
	if err := s.entryRepo.UpdateEntryPostedAndLinks(ctx, journalEntryID, true, entry.ReversingEntryID, entry.OriginalEntryID, requestingUserID, now); err != nil {
		s.LogError(ctx, err, "Failed to post journal entry",
			slog.String("journal_entry_id", journalEntryID))
		return nil, err
	}

	entry.Posted = true
	entry.LastUpdatedAt = now
	entry.LastUpdatedBy = requestingUserID

	s.LogInfo(ctx, "Journal entry posted",
		slog.String("journal_entry_id", journalEntryID),
		slog.String("ledger_id", entry.LedgerID))
	return entry, nil
}

// validateReverseActionAndGetOriginal authorizes the caller and loads the
// original entry plus its transactions, rejecting anything not reversible.
func (s *journalEntryService) validateReverseActionAndGetOriginal(ctx context.Context, entityID, journalEntryID, userID string) (*domain.JournalEntry, []domain.Transaction, error) {
	if err := s.AuthorizeUser(ctx, userID, entityID, domain.RoleManager); err != nil {
		return nil, nil, err
	}

	original, err := s.entryRepo.FindEntryByID(ctx, journalEntryID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to fetch original entry for reversal",
				slog.String("journal_entry_id", journalEntryID))
		}
		return nil, nil, err
	}

	ledger, err := s.loadLedgerForEntity(ctx, entityID, original.LedgerID)
	if err != nil {
		return nil, nil, err
	}
	if ledger.Locked {
		return nil, nil, fmt.Errorf("%w: ledger %q is locked", apperrors.ErrConflict, ledger.Name)
	}

	if !original.Posted {
		return nil, nil, fmt.Errorf("%w: only posted entries can be reversed", apperrors.ErrConflict)
	}
	if original.OriginalEntryID != nil {
		return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrConflict, ErrReversalOfReversal)
	}
	if original.ReversingEntryID != nil {
		return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrConflict, ErrAlreadyReversed)
	}

	// The reversal carries the original's timestamp, so the period it lands in
	// must still be open.
	if err := s.checkOpenPeriod(ctx, entityID, original.Timestamp); err != nil {
		return nil, nil, err
	}

	originalTransactions, err := s.entryRepo.FindTransactionsByEntryID(ctx, journalEntryID)
	if err != nil {
		s.LogError(ctx, err, "Failed to fetch original transactions for reversal",
			slog.String("journal_entry_id", journalEntryID))
		return nil, nil, fmt.Errorf("failed to retrieve original transactions: %w", err)
	}

	return original, originalTransactions, nil
}

// ReverseEntry creates a posted journal entry that mirrors a previously posted
// entry with every transaction type flipped, and links the two entries.
// Implements portssvc.JournalEntrySvcFacade
func (s *journalEntryService) ReverseEntry(ctx context.Context, entityID string, journalEntryID string, requestingUserID string) (*domain.JournalEntry, error) {
	original, originalTransactions, err := s.validateReverseActionAndGetOriginal(ctx, entityID, journalEntryID, requestingUserID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	reversalID := uuid.NewString()

	reversal := domain.JournalEntry{
		JournalEntryID:  reversalID,
		LedgerID:        original.LedgerID,
		Timestamp:       original.Timestamp,
		Description:     fmt.Sprintf("Reversal of: %s", original.Description),
		Posted:          true,
		Amount:          original.Amount,
		OriginalEntryID: &original.JournalEntryID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     requestingUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: requestingUserID,
		},
	}

	reversalTransactions := make([]domain.Transaction, len(originalTransactions))
	for i, origTxn := range originalTransactions {
		flipped := domain.Credit
		if origTxn.TransactionType == domain.Credit {
			flipped = domain.Debit
		}
		reversalTransactions[i] = domain.Transaction{
			TransactionID:   uuid.NewString(),
			JournalEntryID:  reversalID,
			AccountID:       origTxn.AccountID,
			Amount:          origTxn.Amount,
			TransactionType: flipped,
			Notes:           origTxn.Notes,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     requestingUserID,
				LastUpdatedAt: now,
				LastUpdatedBy: requestingUserID,
			},
		}
	}

	if err := s.entryRepo.SaveEntry(ctx, reversal, reversalTransactions); err != nil {
		s.LogError(ctx, err, "Failed to save reversing entry",
			slog.String("journal_entry_id", journalEntryID))
		return nil, fmt.Errorf("failed to save reversing entry: %w", err)
	}

	if err := s.entryRepo.UpdateEntryPostedAndLinks(ctx, original.JournalEntryID, true, &reversalID, original.OriginalEntryID, requestingUserID, now); err != nil {
		s.LogError(ctx, err, "Failed to link original entry to its reversal",
			slog.String("original_entry_id", original.JournalEntryID),
			slog.String("reversing_entry_id", reversalID))
		return nil, fmt.Errorf("failed to update original entry links: %w", err)
	}

	s.LogInfo(ctx, "Journal entry reversed successfully",
		slog.String("original_entry_id", original.JournalEntryID),
		slog.String("reversing_entry_id", reversalID))
	return &reversal, nil
}

// GetEntryByID retrieves a journal entry with its transactions attached.
// Implements portssvc.JournalEntrySvcFacade
func (s *journalEntryService) GetEntryByID(ctx context.Context, entityID string, journalEntryID string, requestingUserID string) (*domain.JournalEntry, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, entityID, domain.RoleManager); err != nil {
		return nil, err
	}

	entry, err := s.entryRepo.FindEntryByID(ctx, journalEntryID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find journal entry by ID",
				slog.String("journal_entry_id", journalEntryID))
		}
		return nil, err
	}

	if _, err := s.loadLedgerForEntity(ctx, entityID, entry.LedgerID); err != nil {
		return nil, err
	}

	transactions, err := s.entryRepo.FindTransactionsByEntryID(ctx, journalEntryID)
	if err != nil {
		s.LogError(ctx, err, "Failed to fetch transactions for journal entry",
			slog.String("journal_entry_id", journalEntryID))
		return nil, fmt.Errorf("failed to retrieve transactions for entry %s: %w", journalEntryID, apperrors.ErrInternal)
	}
	entry.Transactions = transactions

	return entry, nil
}

// ListEntries retrieves a paginated list of journal entries in a ledger.
// Implements portssvc.JournalEntrySvcFacade
func (s *journalEntryService) ListEntries(ctx context.Context, entityID string, ledgerID string, userID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	if err := s.AuthorizeUser(ctx, userID, entityID, domain.RoleManager); err != nil {
		return nil, err
	}

	if _, err := s.loadLedgerForEntity(ctx, entityID, ledgerID); err != nil {
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	entries, nextToken, err := s.entryRepo.ListEntriesByLedger(ctx, ledgerID, limit, params.NextToken, params.IncludeReversals)
	if err != nil {
		s.LogError(ctx, err, "Failed to list journal entries",
			slog.String("ledger_id", ledgerID))
		return nil, err
	}

	if params.IncludeTransactions && len(entries) > 0 {
		entryIDs := make([]string, len(entries))
		for i, entry := range entries {
			entryIDs[i] = entry.JournalEntryID
		}
		txnsByEntry, err := s.entryRepo.FindTransactionsByEntryIDs(ctx, entryIDs)
		if err != nil {
			s.LogError(ctx, err, "Failed to fetch transactions for listed entries",
				slog.String("ledger_id", ledgerID))
			return nil, err
		}
		for i := range entries {
			entries[i].Transactions = txnsByEntry[entries[i].JournalEntryID]
		}
	}

	responses := make([]dto.JournalEntryResponse, len(entries))
	for i := range entries {
		responses[i] = dto.ToJournalEntryResponse(&entries[i])
	}

	return &dto.ListEntriesResponse{
		Entries:   responses,
		NextToken: nextToken,
	}, nil
}

// ListTransactionsByAccount retrieves a paginated list of transactions for an account.
// Implements portssvc.JournalEntrySvcFacade
func (s *journalEntryService) ListTransactionsByAccount(ctx context.Context, entityID string, accountID string, userID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	if err := s.AuthorizeUser(ctx, userID, entityID, domain.RoleManager); err != nil {
		return nil, err
	}

	// Resolving the account also verifies it belongs to the entity.
	if _, err := s.accountSvc.GetAccountByID(ctx, entityID, accountID, userID); err != nil {
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	transactions, nextToken, err := s.entryRepo.ListTransactionsByAccountID(ctx, entityID, accountID, limit, params.NextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list transactions by account",
			slog.String("account_id", accountID))
		return nil, err
	}

	return &dto.ListTransactionsResponse{
		Transactions: dto.ToTransactionResponses(transactions),
		NextToken:    nextToken,
	}, nil
}

// calculateEntryAmount computes the economic value of an entry. For a balanced
// entry the debit side equals the credit side, so the debit sum represents the
// money moved.
func calculateEntryAmount(transactions []domain.Transaction) decimal.Decimal {
	totalDebits := decimal.Zero
	for _, txn := range transactions {
		if txn.TransactionType == domain.Debit {
			totalDebits = totalDebits.Add(txn.Amount)
		}
	}
	return totalDebits
}

func uniqueStrings(input []string) []string {
	seen := make(map[string]struct{}, len(input))
	result := make([]string, 0, len(input))
	for _, str := range input {
		if _, ok := seen[str]; !ok {
			seen[str] = struct{}{}
			result = append(result, str)
		}
	}
	return result
}
