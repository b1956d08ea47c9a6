package repositories

import (
	"context"
	"time"

	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
)

// EntityReader defines read operations for entity data
type EntityReader interface {
	// FindEntityByID retrieves a specific entity by its ID.
	FindEntityByID(ctx context.Context, entityID string) (*domain.Entity, error)

	// FindEntityBySlug retrieves a specific entity by its slug.
	FindEntityBySlug(ctx context.Context, slug string) (*domain.Entity, error)

	// GetEntityClosingDate retrieves the last closing date of an entity, nil when no period has been closed.
	GetEntityClosingDate(ctx context.Context, entityID string) (*time.Time, error)

	// ListEntitiesByUserID retrieves all entities a user belongs to.
	ListEntitiesByUserID(ctx context.Context, userID string) ([]domain.Entity, error)
}

// EntityWriter defines write operations for entity data
type EntityWriter interface {
	// SaveEntity persists a new entity.
	SaveEntity(ctx context.Context, entity domain.Entity) error

	// UpdateEntityClosingDate moves the entity's closing date boundary.
	// The update is guarded by the entity's version for optimistic locking.
	UpdateEntityClosingDate(ctx context.Context, entity domain.Entity) error
}

// EntityMembershipManager defines operations for managing entity memberships
type EntityMembershipManager interface {
	// AddUserToEntity adds a user to an entity with a specific role.
	// Adding an existing member updates their role in place.
	AddUserToEntity(ctx context.Context, membership domain.UserEntity) error

	// FindUserEntityRole retrieves the role of a user in an entity.
	FindUserEntityRole(ctx context.Context, userID, entityID string) (*domain.UserEntity, error)

	// ListUsersByEntityID retrieves all memberships of an entity.
	ListUsersByEntityID(ctx context.Context, entityID string) ([]domain.UserEntity, error)
}

// EntityRepositoryFacade combines all entity-related repository interfaces
// This is a facade for clients that need access to all operations
type EntityRepositoryFacade interface {
	EntityReader
	EntityWriter
	EntityMembershipManager
}

// EntityRepositoryWithTx extends EntityRepositoryFacade with transaction capabilities
type EntityRepositoryWithTx interface {
	EntityRepositoryFacade
	TransactionManager
}
