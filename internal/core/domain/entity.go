package domain

import "time"

// Entity represents an accounting entity, the isolation boundary that owns
// ledgers, accounts and journal entries.
type Entity struct {
	EntityID        string     `json:"entityID" db:"entity_id"` // Primary Key (e.g., UUID)
	Name            string     `json:"name" db:"name"`          // User-defined name for the entity
	Slug            string     `json:"slug" db:"slug"`          // URL safe identifier, unique
	Description     string     `json:"description" db:"description"`
	LastClosingDate *time.Time `json:"lastClosingDate" db:"last_closing_date"` // Boundary of the most recently closed accounting period
	Version         int64      `json:"version" db:"version"`                   // Optimistic locking version
	AuditFields
}

// IsClosedFor reports whether t falls within the entity's closed period.
// The closing date itself belongs to the closed period, so a timestamp equal
// to the closing date is closed.
func (e *Entity) IsClosedFor(t time.Time) bool {
	if e.LastClosingDate == nil {
		return false
	}
	return !t.After(*e.LastClosingDate)
}

// UserEntityRole defines the possible roles a user can have within an entity.
type UserEntityRole string

const (
	RoleAdmin   UserEntityRole = "ADMIN"
	RoleManager UserEntityRole = "MANAGER"
	RoleRemoved UserEntityRole = "REMOVED" // For users who have been removed from the entity
)

// UserEntity represents the membership of a User in an Entity.
type UserEntity struct {
	UserID   string         `json:"userID" db:"user_id"`     // FK -> users.user_id
	UserName string         `json:"userName" db:"user_name"` // Name of the user
	EntityID string         `json:"entityID" db:"entity_id"` // FK -> entities.entity_id
	Role     UserEntityRole `json:"role" db:"role"`          // Role of the user in this specific entity
	JoinedAt time.Time      `json:"joinedAt" db:"joined_at"` // Timestamp when the user joined the entity
}
