package dto

import (
	"time"

	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
)

// --- Account DTOs ---

// CreateAccountRequest defines data for creating a new account.
type CreateAccountRequest struct {
	Name            string             `json:"name" validate:"required"`
	AccountType     domain.AccountType `json:"accountType" validate:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	ParentAccountID *string            `json:"parentAccountID,omitempty"`
	Description     string             `json:"description"`
}

// UpdateAccountRequest defines data for updating an account's details.
// Nil fields are left unchanged.
type UpdateAccountRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// AccountResponse defines data returned for an account.
type AccountResponse struct {
	AccountID       string             `json:"accountID"`
	EntityID        string             `json:"entityID"`
	Name            string             `json:"name"`
	AccountType     domain.AccountType `json:"accountType"`
	ParentAccountID *string            `json:"parentAccountID,omitempty"`
	Description     string             `json:"description"`
	IsActive        bool               `json:"isActive"`
	CreatedAt       time.Time          `json:"createdAt"`
	CreatedBy       string             `json:"createdBy"` // UserID
	LastUpdatedAt   time.Time          `json:"lastUpdatedAt"`
	LastUpdatedBy   string             `json:"lastUpdatedBy"` // UserID
}

// ToAccountResponse converts domain.Account to DTO.
func ToAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:       a.AccountID,
		EntityID:        a.EntityID,
		Name:            a.Name,
		AccountType:     a.AccountType,
		ParentAccountID: a.ParentAccountID,
		Description:     a.Description,
		IsActive:        a.IsActive,
		CreatedAt:       a.CreatedAt,
		CreatedBy:       a.CreatedBy,
		LastUpdatedAt:   a.LastUpdatedAt,
		LastUpdatedBy:   a.LastUpdatedBy,
	}
}

// ToAccountResponses converts a slice of domain.Account to DTOs.
func ToAccountResponses(as []domain.Account) []AccountResponse {
	list := make([]AccountResponse, len(as))
	for i, a := range as {
		list[i] = ToAccountResponse(&a)
	}
	return list
}
