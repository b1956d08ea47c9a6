package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ledgerkeep/ledgerkeep/internal/apperrors"
	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
	portsrepo "github.com/ledgerkeep/ledgerkeep/internal/core/ports/repositories"
	portssvc "github.com/ledgerkeep/ledgerkeep/internal/core/ports/services"
	"github.com/ledgerkeep/ledgerkeep/internal/dto"
	"github.com/google/uuid"
)

// ledgerService implements the LedgerSvcFacade interface
type ledgerService struct {
	BaseService
	ledgerRepo portsrepo.LedgerRepositoryFacade
	entryRepo  portsrepo.JournalEntryReader
	entityRepo portsrepo.EntityReader
}

// LedgerServiceOption is a functional option for configuring the ledger service
type LedgerServiceOption func(*ledgerService)

// WithLedgerEntityAuthorizer adds entity authorizer dependency
func WithLedgerEntityAuthorizer(authorizer portssvc.EntityAuthorizerSvc) LedgerServiceOption {
	return func(s *ledgerService) {
		s.EntityAuthorizer = authorizer
	}
}

// NewLedgerService creates a new ledger service with the provided options
func NewLedgerService(
	ledgerRepo portsrepo.LedgerRepositoryFacade,
	entryRepo portsrepo.JournalEntryReader,
	entityRepo portsrepo.EntityReader,
	options ...LedgerServiceOption,
) portssvc.LedgerSvcFacade {
	svc := &ledgerService{
		ledgerRepo: ledgerRepo,
		entryRepo:  entryRepo,
		entityRepo: entityRepo,
	}

	// Apply all options
	for _, option := range options {
		option(svc)
	}

	return svc
}

// Ensure ledgerService implements the LedgerSvcFacade interface
var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// CreateLedger persists a new ledger in the unposted state
func (s *ledgerService) CreateLedger(ctx context.Context, entityID string, req dto.CreateLedgerRequest, creatorUserID string) (*domain.Ledger, error) {
	if err := s.AuthorizeUser(ctx, creatorUserID, entityID, domain.RoleManager); err != nil {
		return nil, err
	}

	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	now := time.Now()
	ledger := domain.Ledger{
		LedgerID:    uuid.NewString(),
		EntityID:    entityID,
		Name:        req.Name,
		Description: req.Description,
		Hidden:      req.Hidden,
		Version:     1,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.ledgerRepo.SaveLedger(ctx, ledger); err != nil {
		s.LogError(ctx, err, "Failed to save ledger",
			slog.String("ledger_id", ledger.LedgerID),
			slog.String("entity_id", entityID))
		return nil, err
	}

	s.LogInfo(ctx, "Ledger created successfully",
		slog.String("ledger_id", ledger.LedgerID),
		slog.String("entity_id", entityID))
	return &ledger, nil
}

// GetLedgerByID retrieves a ledger scoped to an entity
func (s *ledgerService) GetLedgerByID(ctx context.Context, entityID string, ledgerID string, requestingUserID string) (*domain.Ledger, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, entityID, domain.RoleManager); err != nil {
		return nil, err
	}

	ledger, err := s.ledgerRepo.FindLedgerByID(ctx, ledgerID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find ledger by ID",
				slog.String("ledger_id", ledgerID))
		}
		return nil, err
	}

	if ledger.EntityID != entityID {
		return nil, apperrors.ErrNotFound // Obscure existence
	}

	return ledger, nil
}

// ListLedgers retrieves the ledgers of an entity visible to a user
func (s *ledgerService) ListLedgers(ctx context.Context, entityID string, userID string, params dto.ListLedgersParams) (*dto.ListLedgersResponse, error) {
	if err := s.AuthorizeUser(ctx, userID, entityID, domain.RoleManager); err != nil {
		if errors.Is(err, apperrors.ErrForbidden) {
			// Visibility is membership based: non-members get an empty set, not an error.
			s.LogDebug(ctx, "Non-member requested ledgers, returning empty set",
				slog.String("user_id", userID),
				slog.String("entity_id", entityID))
			return &dto.ListLedgersResponse{Ledgers: []dto.LedgerResponse{}}, nil
		}
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	ledgers, nextToken, err := s.ledgerRepo.ListLedgersByEntityForUser(ctx, entityID, userID, limit, params.NextToken, params.IncludeHidden, params.Posted)
	if err != nil {
		s.LogError(ctx, err, "Failed to list ledgers",
			slog.String("entity_id", entityID),
			slog.String("user_id", userID))
		return nil, err
	}

	resp := &dto.ListLedgersResponse{
		Ledgers:   dto.ToLedgerResponses(ledgers),
		NextToken: nextToken,
	}

	s.LogDebug(ctx, "Ledgers listed successfully",
		slog.Int("count", len(ledgers)),
		slog.String("entity_id", entityID))
	return resp, nil
}

// UpdateLedger updates ledger details, never its lifecycle flags
func (s *ledgerService) UpdateLedger(ctx context.Context, entityID string, ledgerID string, req dto.UpdateLedgerRequest, requestingUserID string) (*domain.Ledger, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, entityID, domain.RoleManager); err != nil {
		return nil, err
	}

	ledger, err := s.ledgerRepo.FindLedgerByID(ctx, ledgerID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find ledger for update",
				slog.String("ledger_id", ledgerID))
		}
		return nil, err
	}

	if ledger.EntityID != entityID {
		return nil, apperrors.ErrNotFound // Obscure existence
	}

	if req.Name != nil {
		ledger.Name = *req.Name
	}
	if req.Description != nil {
		ledger.Description = *req.Description
	}
	if req.Hidden != nil {
		ledger.Hidden = *req.Hidden
	}

	now := time.Now()
	ledger.LastUpdatedAt = now
	ledger.LastUpdatedBy = requestingUserID

	if err := s.ledgerRepo.UpdateLedgerDetails(ctx, *ledger); err != nil {
		s.LogError(ctx, err, "Failed to update ledger details",
			slog.String("ledger_id", ledgerID))
		return nil, err
	}

	s.LogInfo(ctx, "Ledger updated successfully",
		slog.String("ledger_id", ledgerID))
	return ledger, nil
}

// PostLedger marks the ledger posted
func (s *ledgerService) PostLedger(ctx context.Context, entityID string, ledgerID string, requestingUserID string, commit bool) (*domain.Ledger, error) {
	return s.transitionLedger(ctx, entityID, ledgerID, requestingUserID, commit, "post", (*domain.Ledger).Post)
}

// UnpostLedger returns the ledger to the unposted state unless locked
func (s *ledgerService) UnpostLedger(ctx context.Context, entityID string, ledgerID string, requestingUserID string, commit bool) (*domain.Ledger, error) {
	return s.transitionLedger(ctx, entityID, ledgerID, requestingUserID, commit, "unpost", (*domain.Ledger).Unpost)
}

// LockLedger freezes a posted ledger against further state changes
func (s *ledgerService) LockLedger(ctx context.Context, entityID string, ledgerID string, requestingUserID string, commit bool) (*domain.Ledger, error) {
	return s.transitionLedger(ctx, entityID, ledgerID, requestingUserID, commit, "lock", (*domain.Ledger).Lock)
}

// UnlockLedger releases a locked ledger
func (s *ledgerService) UnlockLedger(ctx context.Context, entityID string, ledgerID string, requestingUserID string, commit bool) (*domain.Ledger, error) {
	return s.transitionLedger(ctx, entityID, ledgerID, requestingUserID, commit, "unlock", (*domain.Ledger).Unlock)
}

// transitionLedger runs one lifecycle transition end to end: authorize, load,
// apply the precondition-checked mutation, and persist when commit is set.
// A transition whose precondition does not hold is a silent no-op and returns
// the ledger unchanged.
func (s *ledgerService) transitionLedger(ctx context.Context, entityID, ledgerID, userID string, commit bool, transition string, apply func(*domain.Ledger) bool) (*domain.Ledger, error) {
	if err := s.AuthorizeUser(ctx, userID, entityID, domain.RoleManager); err != nil {
		return nil, err
	}

	ledger, err := s.ledgerRepo.FindLedgerByID(ctx, ledgerID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find ledger for transition",
				slog.String("ledger_id", ledgerID),
				slog.String("transition", transition))
		}
		return nil, err
	}

	if ledger.EntityID != entityID {
		return nil, apperrors.ErrNotFound // Obscure existence
	}

	if !apply(ledger) {
		s.LogDebug(ctx, "Ledger transition skipped, precondition not met",
			slog.String("ledger_id", ledgerID),
			slog.String("transition", transition),
			slog.String("state", string(ledger.State())))
		return ledger, nil
	}

	if !commit {
		// Deferred persistence: the caller holds the new state in memory and
		// decides when to write it.
		s.LogDebug(ctx, "Ledger transition applied without commit",
			slog.String("ledger_id", ledgerID),
			slog.String("transition", transition),
			slog.String("state", string(ledger.State())))
		return ledger, nil
	}

	now := time.Now()
	ledger.LastUpdatedAt = now
	ledger.LastUpdatedBy = userID

	if err := s.ledgerRepo.UpdateLedgerState(ctx, *ledger); err != nil {
		s.LogError(ctx, err, "Failed to persist ledger state",
			slog.String("ledger_id", ledgerID),
			slog.String("transition", transition))
		return nil, err
	}
	ledger.Version++

	s.LogInfo(ctx, "Ledger state changed",
		slog.String("ledger_id", ledgerID),
		slog.String("transition", transition),
		slog.String("state", string(ledger.State())))
	return ledger, nil
}

// DeleteLedger destroys a ledger and everything in it after two guards pass.
// The state guard rejects posted or locked ledgers. The closed period guard
// rejects ledgers whose most recent posted entry falls on or before the
// entity's last closing date.
func (s *ledgerService) DeleteLedger(ctx context.Context, entityID string, ledgerID string, requestingUserID string) error {
	if err := s.AuthorizeUser(ctx, requestingUserID, entityID, domain.RoleAdmin); err != nil {
		return err
	}

	ledger, err := s.ledgerRepo.FindLedgerByID(ctx, ledgerID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find ledger for deletion",
				slog.String("ledger_id", ledgerID))
		}
		return err
	}

	if ledger.EntityID != entityID {
		return apperrors.ErrNotFound // Obscure existence
	}

	// Stage one: lifecycle state.
	if !ledger.CanDelete() {
		s.LogDebug(ctx, "Ledger deletion refused by state guard",
			slog.String("ledger_id", ledgerID),
			slog.String("state", string(ledger.State())))
		return &apperrors.LedgerNotDeletableError{
			LedgerName: ledger.Name,
			Posted:     ledger.Posted,
			Locked:     ledger.Locked,
		}
	}

	// Stage two: closed accounting period. Only consulted once the state
	// guard has passed, and only when the ledger has posted entries at all.
	latest, err := s.entryRepo.FindMostRecentPostedEntry(ctx, ledgerID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		s.LogError(ctx, err, "Failed to load most recent posted entry",
			slog.String("ledger_id", ledgerID))
		return err
	}

	if latest != nil {
		closingDate, err := s.entityRepo.GetEntityClosingDate(ctx, entityID)
		if err != nil {
			s.LogError(ctx, err, "Failed to load entity closing date",
				slog.String("entity_id", entityID))
			return err
		}
		if closingDate != nil && !latest.Timestamp.After(*closingDate) {
			s.LogDebug(ctx, "Ledger deletion refused by closed period guard",
				slog.String("ledger_id", ledgerID),
				slog.Time("entry_timestamp", latest.Timestamp),
				slog.Time("closing_date", *closingDate))
			return &apperrors.ClosedPeriodViolationError{
				EntryTimestamp: latest.Timestamp,
				ClosingDate:    *closingDate,
			}
		}
	}

	if err := s.ledgerRepo.DeleteLedger(ctx, ledgerID); err != nil {
		s.LogError(ctx, err, "Failed to delete ledger",
			slog.String("ledger_id", ledgerID))
		return err
	}

	s.LogInfo(ctx, "Ledger deleted",
		slog.String("ledger_id", ledgerID),
		slog.String("entity_id", entityID))
	return nil
}
