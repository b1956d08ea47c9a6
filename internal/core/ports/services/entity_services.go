package services

import (
	"context"
	"time"

	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
	"github.com/ledgerkeep/ledgerkeep/internal/dto"
)

// EntityReaderSvc defines read operations for entity data
type EntityReaderSvc interface {
	// FindEntityByID retrieves a specific entity by its ID.
	FindEntityByID(ctx context.Context, entityID string) (*domain.Entity, error)

	// FindEntityBySlug retrieves a specific entity by its slug.
	FindEntityBySlug(ctx context.Context, slug string) (*domain.Entity, error)

	// ListUserEntities retrieves entities a user belongs to.
	ListUserEntities(ctx context.Context, userID string) ([]domain.Entity, error)

	// ListEntityUsers retrieves all users and their roles for a specific entity.
	// Only members of the entity can access this data.
	ListEntityUsers(ctx context.Context, entityID string, requestingUserID string) ([]domain.UserEntity, error)
}

// EntityWriterSvc defines write operations for entity data
type EntityWriterSvc interface {
	// CreateEntity persists a new entity with the creator as its first admin.
	CreateEntity(ctx context.Context, req dto.CreateEntityRequest, creatorUserID string) (*domain.Entity, error)

	// UpdateEntityClosingDate moves the entity's closing date boundary.
	// Passing nil reopens all periods. Only entity admins may close periods.
	UpdateEntityClosingDate(ctx context.Context, entityID string, requestingUserID string, closingDate *time.Time) (*domain.Entity, error)
}

// EntityMembershipSvc defines operations for managing entity membership
type EntityMembershipSvc interface {
	// AddUserToEntity adds a user to an entity with a specific role.
	AddUserToEntity(ctx context.Context, addingUserID, targetUserID, entityID string, role domain.UserEntityRole) error

	// RemoveUserFromEntity removes a user from an entity.
	// Only entity admins can remove users from an entity.
	RemoveUserFromEntity(ctx context.Context, requestingUserID, targetUserID, entityID string) error

	// UpdateUserEntityRole updates a user's role in an entity.
	// Only entity admins can update user roles.
	UpdateUserEntityRole(ctx context.Context, requestingUserID, targetUserID, entityID string, newRole domain.UserEntityRole) error
}

// EntityAuthorizerSvc defines operations for entity authorization
type EntityAuthorizerSvc interface {
	// AuthorizeUserAction checks if a user has required permissions for an entity.
	AuthorizeUserAction(ctx context.Context, userID, entityID string, requiredRole domain.UserEntityRole) error
}

// EntitySvcFacade combines all entity-related service interfaces
// This is a facade for clients that need access to all operations
type EntitySvcFacade interface {
	EntityReaderSvc
	EntityWriterSvc
	EntityMembershipSvc
	EntityAuthorizerSvc
}
