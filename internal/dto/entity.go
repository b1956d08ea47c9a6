package dto

import (
	"time"

	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
)

// --- Entity DTOs ---

// CreateEntityRequest defines data for creating a new entity.
type CreateEntityRequest struct {
	Name        string `json:"name" validate:"required"`
	Slug        string `json:"slug" validate:"omitempty,lowercase"`
	Description string `json:"description"`
}

// EntityResponse defines data returned for an entity.
type EntityResponse struct {
	EntityID        string     `json:"entityID"`
	Name            string     `json:"name"`
	Slug            string     `json:"slug"`
	Description     string     `json:"description"`
	LastClosingDate *time.Time `json:"lastClosingDate,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	CreatedBy       string     `json:"createdBy"` // UserID
	LastUpdatedAt   time.Time  `json:"lastUpdatedAt"`
	LastUpdatedBy   string     `json:"lastUpdatedBy"` // UserID
}

// ToEntityResponse converts domain.Entity to DTO.
func ToEntityResponse(e *domain.Entity) EntityResponse {
	return EntityResponse{
		EntityID:        e.EntityID,
		Name:            e.Name,
		Slug:            e.Slug,
		Description:     e.Description,
		LastClosingDate: e.LastClosingDate,
		CreatedAt:       e.CreatedAt,
		CreatedBy:       e.CreatedBy,
		LastUpdatedAt:   e.LastUpdatedAt,
		LastUpdatedBy:   e.LastUpdatedBy,
	}
}

// ListEntitiesResponse wraps a list of entities.
type ListEntitiesResponse struct {
	Entities []EntityResponse `json:"entities"`
}

// ToListEntitiesResponse converts a slice of domain.Entity to DTO.
func ToListEntitiesResponse(es []domain.Entity) ListEntitiesResponse {
	list := make([]EntityResponse, len(es))
	for i, e := range es {
		list[i] = ToEntityResponse(&e)
	}
	return ListEntitiesResponse{Entities: list}
}

// --- User Entity Membership DTOs ---

// AddUserToEntityRequest defines data for adding a user to an entity.
type AddUserToEntityRequest struct {
	UserID string                `json:"userID" validate:"required"`
	Role   domain.UserEntityRole `json:"role" validate:"required,oneof=ADMIN MANAGER"`
}

// UserEntityResponse defines data returned about a user's membership.
type UserEntityResponse struct {
	UserID   string                `json:"userID"`
	UserName string                `json:"userName"`
	EntityID string                `json:"entityID"`
	Role     domain.UserEntityRole `json:"role"`
	JoinedAt time.Time             `json:"joinedAt"`
}

// ToUserEntityResponse converts domain.UserEntity to DTO.
func ToUserEntityResponse(ue *domain.UserEntity) UserEntityResponse {
	return UserEntityResponse{
		UserID:   ue.UserID,
		UserName: ue.UserName,
		EntityID: ue.EntityID,
		Role:     ue.Role,
		JoinedAt: ue.JoinedAt,
	}
}

// UpdateClosingDateRequest defines data for moving an entity's closing date.
// A nil closing date reopens all periods.
type UpdateClosingDateRequest struct {
	ClosingDate *time.Time `json:"closingDate"`
}
