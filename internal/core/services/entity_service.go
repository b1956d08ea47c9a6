package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ledgerkeep/ledgerkeep/internal/apperrors"
	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
	portsrepo "github.com/ledgerkeep/ledgerkeep/internal/core/ports/repositories"
	portssvc "github.com/ledgerkeep/ledgerkeep/internal/core/ports/services"
	"github.com/ledgerkeep/ledgerkeep/internal/dto"
	"github.com/google/uuid"
)

// entityService implements the EntitySvcFacade interface
type entityService struct {
	BaseService
	entityRepo portsrepo.EntityRepositoryFacade
}

// NewEntityService creates a new entity service with the provided dependencies
func NewEntityService(entityRepo portsrepo.EntityRepositoryFacade) portssvc.EntitySvcFacade {
	return &entityService{
		entityRepo: entityRepo,
	}
}

// Ensure entityService implements the EntitySvcFacade interface
var _ portssvc.EntitySvcFacade = (*entityService)(nil)

// FindEntityByID retrieves an entity by its ID
func (s *entityService) FindEntityByID(ctx context.Context, entityID string) (*domain.Entity, error) {
	entity, err := s.entityRepo.FindEntityByID(ctx, entityID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find entity by ID",
				slog.String("entity_id", entityID))
		}
		return nil, err
	}

	s.LogDebug(ctx, "Entity retrieved successfully",
		slog.String("entity_id", entity.EntityID))
	return entity, nil
}

// FindEntityBySlug retrieves an entity by its slug
func (s *entityService) FindEntityBySlug(ctx context.Context, slug string) (*domain.Entity, error) {
	entity, err := s.entityRepo.FindEntityBySlug(ctx, slug)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find entity by slug",
				slog.String("slug", slug))
		}
		return nil, err
	}

	s.LogDebug(ctx, "Entity retrieved successfully",
		slog.String("entity_id", entity.EntityID),
		slog.String("slug", slug))
	return entity, nil
}

// ListUserEntities retrieves all entities a user belongs to
func (s *entityService) ListUserEntities(ctx context.Context, userID string) ([]domain.Entity, error) {
	entities, err := s.entityRepo.ListEntitiesByUserID(ctx, userID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list entities for user",
			slog.String("user_id", userID))
		return nil, err
	}

	if entities == nil {
		return []domain.Entity{}, nil
	}

	s.LogDebug(ctx, "Entities listed successfully",
		slog.Int("count", len(entities)),
		slog.String("user_id", userID))
	return entities, nil
}

// ListEntityUsers retrieves all users and their roles for an entity
func (s *entityService) ListEntityUsers(ctx context.Context, entityID string, requestingUserID string) ([]domain.UserEntity, error) {
	err := s.AuthorizeUserAction(ctx, requestingUserID, entityID, domain.RoleManager)
	if err != nil {
		s.LogError(ctx, err, "User not authorized to list entity members",
			slog.String("requesting_user_id", requestingUserID),
			slog.String("entity_id", entityID))
		return nil, err
	}

	memberships, err := s.entityRepo.ListUsersByEntityID(ctx, entityID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list users for entity",
			slog.String("entity_id", entityID))
		return nil, err
	}

	if memberships == nil {
		return []domain.UserEntity{}, nil
	}
	return memberships, nil
}

// CreateEntity creates a new entity with the creator as its first admin
func (s *entityService) CreateEntity(ctx context.Context, req dto.CreateEntityRequest, creatorUserID string) (*domain.Entity, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	now := time.Now()
	entityID := uuid.NewString()

	slug := req.Slug
	if slug == "" {
		// Derive a unique slug from the name with a short random suffix.
		slug = slugify(req.Name) + "-" + entityID[:6]
	}

	entity := domain.Entity{
		EntityID:    entityID,
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		Version:     1,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	err := s.entityRepo.SaveEntity(ctx, entity)
	if err != nil {
		s.LogError(ctx, err, "Failed to save entity",
			slog.String("entity_id", entity.EntityID))
		return nil, err
	}

	// Add creator as an admin to the new entity
	membershipErr := s.AddUserToEntity(ctx, creatorUserID, creatorUserID, entityID, domain.RoleAdmin)
	if membershipErr != nil {
		s.LogError(ctx, membershipErr, "Failed to add creator as admin to new entity",
			slog.String("entity_id", entity.EntityID),
			slog.String("user_id", creatorUserID))
		// Note: We don't return this error because the entity was created successfully
		// In a real app, we might want to handle this more gracefully, perhaps with a transaction
	}

	s.LogInfo(ctx, "Entity created successfully",
		slog.String("entity_id", entity.EntityID),
		slog.String("creator_id", creatorUserID))
	return &entity, nil
}

// UpdateEntityClosingDate moves the entity's closing date boundary.
// Journal entries dated on or before the closing date belong to a closed
// period and can no longer be created or destroyed.
func (s *entityService) UpdateEntityClosingDate(ctx context.Context, entityID string, requestingUserID string, closingDate *time.Time) (*domain.Entity, error) {
	err := s.AuthorizeUserAction(ctx, requestingUserID, entityID, domain.RoleAdmin)
	if err != nil {
		s.LogError(ctx, err, "User not authorized to update entity closing date",
			slog.String("requesting_user_id", requestingUserID),
			slog.String("entity_id", entityID))
		return nil, err
	}

	entity, err := s.entityRepo.FindEntityByID(ctx, entityID)
	if err != nil {
		s.LogError(ctx, err, "Failed to find entity for closing date update",
			slog.String("entity_id", entityID))
		return nil, err
	}

	now := time.Now()
	entity.LastClosingDate = closingDate
	entity.LastUpdatedAt = now
	entity.LastUpdatedBy = requestingUserID

	err = s.entityRepo.UpdateEntityClosingDate(ctx, *entity)
	if err != nil {
		s.LogError(ctx, err, "Failed to update entity closing date",
			slog.String("entity_id", entityID))
		return nil, err
	}
	entity.Version++

	if closingDate != nil {
		s.LogInfo(ctx, "Entity closing date updated",
			slog.String("entity_id", entityID),
			slog.Time("closing_date", *closingDate))
	} else {
		s.LogInfo(ctx, "Entity closing date cleared, all periods reopened",
			slog.String("entity_id", entityID))
	}
	return entity, nil
}

// AddUserToEntity adds a user to an entity with a specific role
func (s *entityService) AddUserToEntity(ctx context.Context, addingUserID, targetUserID, entityID string, role domain.UserEntityRole) error {
	// Check if adding user has permission (must be admin)
	if addingUserID != targetUserID { // Self-assignment is permitted (e.g., creator adding self as admin)
		err := s.AuthorizeUserAction(ctx, addingUserID, entityID, domain.RoleAdmin)
		if err != nil {
			s.LogError(ctx, err, "User not authorized to add members to entity",
				slog.String("adding_user_id", addingUserID),
				slog.String("entity_id", entityID))
			return err
		}
	}

	// Create membership
	membership := domain.UserEntity{
		UserID:   targetUserID,
		EntityID: entityID,
		Role:     role,
		JoinedAt: time.Now(),
	}

	err := s.entityRepo.AddUserToEntity(ctx, membership)
	if err != nil {
		s.LogError(ctx, err, "Failed to add user to entity",
			slog.String("target_user_id", targetUserID),
			slog.String("entity_id", entityID))
		return err
	}

	s.LogInfo(ctx, "User added to entity successfully",
		slog.String("target_user_id", targetUserID),
		slog.String("entity_id", entityID),
		slog.String("role", string(role)))
	return nil
}

// RemoveUserFromEntity marks a user's membership as removed
func (s *entityService) RemoveUserFromEntity(ctx context.Context, requestingUserID, targetUserID, entityID string) error {
	err := s.AuthorizeUserAction(ctx, requestingUserID, entityID, domain.RoleAdmin)
	if err != nil {
		s.LogError(ctx, err, "User not authorized to remove members from entity",
			slog.String("requesting_user_id", requestingUserID),
			slog.String("entity_id", entityID))
		return err
	}

	// Membership rows are kept for audit, the role just flips to REMOVED.
	membership := domain.UserEntity{
		UserID:   targetUserID,
		EntityID: entityID,
		Role:     domain.RoleRemoved,
		JoinedAt: time.Now(),
	}

	err = s.entityRepo.AddUserToEntity(ctx, membership)
	if err != nil {
		s.LogError(ctx, err, "Failed to remove user from entity",
			slog.String("target_user_id", targetUserID),
			slog.String("entity_id", entityID))
		return err
	}

	s.LogInfo(ctx, "User removed from entity",
		slog.String("target_user_id", targetUserID),
		slog.String("entity_id", entityID))
	return nil
}

// UpdateUserEntityRole updates a user's role in an entity
func (s *entityService) UpdateUserEntityRole(ctx context.Context, requestingUserID, targetUserID, entityID string, newRole domain.UserEntityRole) error {
	if newRole != domain.RoleAdmin && newRole != domain.RoleManager {
		return apperrors.NewValidationFailedError("role must be ADMIN or MANAGER")
	}

	err := s.AuthorizeUserAction(ctx, requestingUserID, entityID, domain.RoleAdmin)
	if err != nil {
		s.LogError(ctx, err, "User not authorized to update member roles",
			slog.String("requesting_user_id", requestingUserID),
			slog.String("entity_id", entityID))
		return err
	}

	membership := domain.UserEntity{
		UserID:   targetUserID,
		EntityID: entityID,
		Role:     newRole,
		JoinedAt: time.Now(),
	}

	err = s.entityRepo.AddUserToEntity(ctx, membership)
	if err != nil {
		s.LogError(ctx, err, "Failed to update user role in entity",
			slog.String("target_user_id", targetUserID),
			slog.String("entity_id", entityID))
		return err
	}

	s.LogInfo(ctx, "User role updated in entity",
		slog.String("target_user_id", targetUserID),
		slog.String("entity_id", entityID),
		slog.String("role", string(newRole)))
	return nil
}

// AuthorizeUserAction checks if a user has required permissions for an entity
func (s *entityService) AuthorizeUserAction(ctx context.Context, userID, entityID string, requiredRole domain.UserEntityRole) error {
	membership, err := s.entityRepo.FindUserEntityRole(ctx, userID, entityID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.LogDebug(ctx, "User not a member of entity",
				slog.String("user_id", userID),
				slog.String("entity_id", entityID))
			return apperrors.ErrForbidden
		}
		s.LogError(ctx, err, "Failed to find user entity role",
			slog.String("user_id", userID),
			slog.String("entity_id", entityID))
		return err
	}

	// Check if user has required role or higher
	if !hasRequiredRole(membership.Role, requiredRole) {
		s.LogDebug(ctx, "User does not have required role",
			slog.String("user_id", userID),
			slog.String("entity_id", entityID),
			slog.String("user_role", string(membership.Role)),
			slog.String("required_role", string(requiredRole)))
		return apperrors.ErrForbidden
	}

	return nil
}

// hasRequiredRole checks if the user's role meets or exceeds the required role
func hasRequiredRole(userRole, requiredRole domain.UserEntityRole) bool {
	// Simple role hierarchy check
	switch requiredRole {
	case domain.RoleManager:
		return userRole == domain.RoleManager || userRole == domain.RoleAdmin
	case domain.RoleAdmin:
		return userRole == domain.RoleAdmin
	default:
		return false
	}
}

// slugify lowercases the name and collapses everything outside [a-z0-9] into hyphens.
func slugify(name string) string {
	var b strings.Builder
	lastHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen && b.Len() > 0 {
				b.WriteRune('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
