package domain

import "time"

// User is an operator of the system. Users act on entities through explicit
// memberships, and every write carries the acting user's ID in its audit
// stamps. Soft-deleted users disappear from reads but their ID keeps
// resolving in historical audit fields.
type User struct {
	UserID string `json:"userID" db:"user_id"` // Primary Key (e.g., UUID)
	Name   string `json:"name" db:"name"`
	Email  string `json:"email" db:"email"`
	AuditFields
	DeletedAt *time.Time `json:"deletedAt,omitempty" db:"deleted_at"` // Soft delete marker
}
