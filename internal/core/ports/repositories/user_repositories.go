package repositories

import (
	"context"
	"time"

	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
)

// UserReader defines read operations for user data. Soft-deleted users are
// invisible to every reader method.
type UserReader interface {
	// FindUserByID retrieves a user by ID, or ErrNotFound if the user does
	// not exist or has been deleted.
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)

	// FindUsers retrieves users ordered newest first, with limit/offset
	// paging.
	FindUsers(ctx context.Context, limit int, offset int) ([]domain.User, error)
}

// UserWriter defines write operations for user data.
type UserWriter interface {
	// SaveUser persists a user, updating name and email when the ID already
	// exists. A duplicate email maps to ErrDuplicate.
	SaveUser(ctx context.Context, user domain.User) error

	// UpdateUser updates an existing user's details.
	UpdateUser(ctx context.Context, user domain.User) error
}

// UserLifecycleManager handles the soft-delete transition. The row is kept so
// audit fields referencing the user stay resolvable.
type UserLifecycleManager interface {
	// MarkUserDeleted stamps the user deleted. Deleting an unknown or already
	// deleted user maps to ErrNotFound.
	MarkUserDeleted(ctx context.Context, userID string, deletedAt time.Time, deletedBy string) error
}

// UserRepositoryFacade combines all user repository interfaces for clients
// that need the full surface.
type UserRepositoryFacade interface {
	UserReader
	UserWriter
	UserLifecycleManager
}
