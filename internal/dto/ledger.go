package dto

import (
	"time"

	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
)

// --- Ledger DTOs ---

// CreateLedgerRequest defines data for creating a new ledger.
type CreateLedgerRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Hidden      bool   `json:"hidden"`
}

// UpdateLedgerRequest defines data for updating ledger details.
// Nil fields are left unchanged. Lifecycle flags are never updated here.
type UpdateLedgerRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Hidden      *bool   `json:"hidden,omitempty"`
}

// LedgerResponse defines data returned for a ledger.
type LedgerResponse struct {
	LedgerID      string             `json:"ledgerID"`
	EntityID      string             `json:"entityID"`
	Name          string             `json:"name"`
	Description   string             `json:"description"`
	State         domain.LedgerState `json:"state"`
	Posted        bool               `json:"posted"`
	Locked        bool               `json:"locked"`
	Hidden        bool               `json:"hidden"`
	Version       int64              `json:"version"`
	CreatedAt     time.Time          `json:"createdAt"`
	CreatedBy     string             `json:"createdBy"` // UserID
	LastUpdatedAt time.Time          `json:"lastUpdatedAt"`
	LastUpdatedBy string             `json:"lastUpdatedBy"` // UserID
}

// ToLedgerResponse converts domain.Ledger to DTO.
func ToLedgerResponse(l *domain.Ledger) LedgerResponse {
	return LedgerResponse{
		LedgerID:      l.LedgerID,
		EntityID:      l.EntityID,
		Name:          l.Name,
		Description:   l.Description,
		State:         l.State(),
		Posted:        l.Posted,
		Locked:        l.Locked,
		Hidden:        l.Hidden,
		Version:       l.Version,
		CreatedAt:     l.CreatedAt,
		CreatedBy:     l.CreatedBy,
		LastUpdatedAt: l.LastUpdatedAt,
		LastUpdatedBy: l.LastUpdatedBy,
	}
}

// ListLedgersParams holds the filters for listing ledgers.
type ListLedgersParams struct {
	Limit         int     `json:"limit"`
	NextToken     *string `json:"nextToken,omitempty"`
	IncludeHidden bool    `json:"includeHidden"`
	Posted        *bool   `json:"posted,omitempty"`
}

// ListLedgersResponse wraps a paginated list of ledgers.
type ListLedgersResponse struct {
	Ledgers   []LedgerResponse `json:"ledgers"`
	NextToken *string          `json:"nextToken,omitempty"`
}

// ToLedgerResponses converts a slice of domain.Ledger to DTOs.
func ToLedgerResponses(ls []domain.Ledger) []LedgerResponse {
	list := make([]LedgerResponse, len(ls))
	for i, l := range ls {
		list[i] = ToLedgerResponse(&l)
	}
	return list
}
