package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerkeep/ledgerkeep/internal/apperrors"
	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
	portsrepo "github.com/ledgerkeep/ledgerkeep/internal/core/ports/repositories"
	portssvc "github.com/ledgerkeep/ledgerkeep/internal/core/ports/services"
	"github.com/ledgerkeep/ledgerkeep/internal/dto"
)

// accountService implements the AccountSvcFacade interface
type accountService struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryFacade
}

// AccountServiceOption is a functional option for configuring the account service
type AccountServiceOption func(*accountService)

// WithAccountEntityAuthorizer adds entity authorizer dependency
func WithAccountEntityAuthorizer(authorizer portssvc.EntityAuthorizerSvc) AccountServiceOption {
	return func(s *accountService) {
		s.EntityAuthorizer = authorizer
	}
}

// NewAccountService creates a new account service with the provided options
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade, options ...AccountServiceOption) portssvc.AccountSvcFacade {
	svc := &accountService{
		accountRepo: accountRepo,
	}

	// Apply all options
	for _, option := range options {
		option(svc)
	}

	return svc
}

// Ensure accountService implements the AccountSvcFacade interface
var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// CreateAccount persists a new account in the entity's chart of accounts
func (s *accountService) CreateAccount(ctx context.Context, entityID string, req dto.CreateAccountRequest, requestingUserID string) (*domain.Account, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, entityID, domain.RoleManager); err != nil {
		return nil, err
	}

	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	now := time.Now()
	newAccountID := uuid.NewString()

	if req.ParentAccountID != nil {
		// Validate parent account exists and belongs to the same entity
		parentAccount, err := s.accountRepo.FindAccountByID(ctx, *req.ParentAccountID)
		if err != nil {
			s.LogError(ctx, err, "Failed to find parent account",
				slog.String("parent_id", *req.ParentAccountID))
			return nil, fmt.Errorf("invalid parent account: %w", err)
		}
		if parentAccount.EntityID != entityID {
			err := apperrors.ErrValidation
			s.LogError(ctx, err, "Parent account belongs to different entity",
				slog.String("parent_entity", parentAccount.EntityID),
				slog.String("requested_entity", entityID))
			return nil, fmt.Errorf("parent account belongs to different entity: %w", err)
		}
	}

	account := domain.Account{
		AccountID:       newAccountID,
		EntityID:        entityID,
		Name:            req.Name,
		AccountType:     domain.AccountType(req.AccountType),
		ParentAccountID: req.ParentAccountID,
		Description:     req.Description,
		IsActive:        true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     requestingUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: requestingUserID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		s.LogError(ctx, err, "Failed to save account",
			slog.String("account_id", account.AccountID),
			slog.String("entity_id", entityID))
		return nil, err
	}

	s.LogInfo(ctx, "Account created successfully",
		slog.String("account_id", account.AccountID),
		slog.String("entity_id", entityID))
	return &account, nil
}

func (s *accountService) GetAccountByID(ctx context.Context, entityID string, accountID string, requestingUserID string) (*domain.Account, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, entityID, domain.RoleManager); err != nil {
		return nil, err
	}

	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find account by ID",
				slog.String("account_id", accountID))
		}
		return nil, err // Propagate error (including NotFound)
	}

	if account.EntityID != entityID {
		s.LogDebug(ctx, "Account found but belongs to different entity",
			slog.String("account_id", accountID),
			slog.String("account_entity", account.EntityID),
			slog.String("requested_entity", entityID))
		// Return NotFound to obscure existence from unauthorized entities
		return nil, apperrors.ErrNotFound
	}

	return account, nil
}

func (s *accountService) GetAccountByIDs(ctx context.Context, entityID string, accountIDs []string, requestingUserID string) (map[string]domain.Account, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, entityID, domain.RoleManager); err != nil {
		return nil, err
	}

	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, accountIDs)
	if err != nil {
		s.LogError(ctx, err, "Failed to find accounts by IDs",
			slog.String("account_ids", fmt.Sprintf("%v", accountIDs)))
		return nil, err
	}

	for _, account := range accounts {
		if account.EntityID != entityID {
			s.LogDebug(ctx, "Account found but belongs to different entity",
				slog.String("account_id", account.AccountID),
				slog.String("account_entity", account.EntityID),
				slog.String("requested_entity", entityID))
			return nil, apperrors.ErrNotFound
		}
	}

	return accounts, nil
}

func (s *accountService) ListAccounts(ctx context.Context, entityID string, requestingUserID string, limit int, offset int) ([]domain.Account, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, entityID, domain.RoleManager); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	accounts, err := s.accountRepo.ListAccounts(ctx, entityID, limit, offset)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts",
			slog.String("entity_id", entityID),
			slog.Int("limit", limit),
			slog.Int("offset", offset))
		return nil, fmt.Errorf("failed to list accounts for entity %s: %w", entityID, err)
	}

	if accounts == nil {
		return []domain.Account{}, nil // Return empty slice if repo returns nil
	}

	s.LogDebug(ctx, "Accounts listed successfully",
		slog.Int("count", len(accounts)),
		slog.String("entity_id", entityID))
	return accounts, nil
}

func (s *accountService) UpdateAccount(ctx context.Context, entityID string, accountID string, req dto.UpdateAccountRequest, requestingUserID string) (*domain.Account, error) {
	// Fetch the existing account, which also authorizes and scopes to the entity
	account, err := s.GetAccountByID(ctx, entityID, accountID, requestingUserID)
	if err != nil {
		return nil, err // GetAccountByID already logs errors
	}

	// Apply updates
	updated := false
	if req.Name != nil {
		account.Name = *req.Name
		updated = true
	}
	if req.Description != nil {
		account.Description = *req.Description
		updated = true
	}
	if !updated {
		s.LogDebug(ctx, "No fields provided for account update",
			slog.String("account_id", accountID))
		return account, nil
	}

	now := time.Now()
	account.LastUpdatedAt = now
	account.LastUpdatedBy = requestingUserID

	if err := s.accountRepo.UpdateAccount(ctx, *account); err != nil {
		s.LogError(ctx, err, "Failed to update account",
			slog.String("account_id", accountID))
		return nil, err
	}

	s.LogInfo(ctx, "Account updated successfully",
		slog.String("account_id", account.AccountID),
		slog.String("entity_id", account.EntityID))
	return account, nil
}

func (s *accountService) DeactivateAccount(ctx context.Context, entityID string, accountID string, requestingUserID string) error {
	// First verify that the account exists and belongs to the entity
	if _, err := s.GetAccountByID(ctx, entityID, accountID, requestingUserID); err != nil {
		return err // GetAccountByID already logs errors
	}

	now := time.Now()
	if err := s.accountRepo.DeactivateAccount(ctx, accountID, requestingUserID, now); err != nil {
		s.LogError(ctx, err, "Failed to deactivate account",
			slog.String("account_id", accountID))
		return err
	}

	s.LogInfo(ctx, "Account deactivated successfully",
		slog.String("account_id", accountID),
		slog.String("entity_id", entityID))
	return nil
}
