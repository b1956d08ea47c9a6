package dto

import (
	"time"

	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
	"github.com/shopspring/decimal"
)

// --- Journal Entry DTOs ---

// CreateTransactionRequest defines a single debit or credit line of a new entry.
type CreateTransactionRequest struct {
	AccountID       string                 `json:"accountID" validate:"required"`
	Amount          decimal.Decimal        `json:"amount" validate:"required"`
	TransactionType domain.TransactionType `json:"transactionType" validate:"required,oneof=DEBIT CREDIT"`
	Notes           string                 `json:"notes"`
}

// CreateJournalEntryRequest defines data for creating a new journal entry.
type CreateJournalEntryRequest struct {
	Timestamp    time.Time                  `json:"timestamp" validate:"required"`
	Description  string                     `json:"description"`
	Transactions []CreateTransactionRequest `json:"transactions" validate:"required,min=2,dive"`
}

// TransactionResponse defines the data returned for a transaction.
type TransactionResponse struct {
	TransactionID  string          `json:"transactionID"`
	JournalEntryID string          `json:"journalEntryID"`
	AccountID      string          `json:"accountID"`
	Amount         decimal.Decimal `json:"amount"`
	Type           string          `json:"type"` // DEBIT or CREDIT
	Notes          string          `json:"notes,omitempty"`
}

// JournalEntryResponse defines the data returned for a journal entry.
type JournalEntryResponse struct {
	JournalEntryID   string                `json:"journalEntryID"`
	LedgerID         string                `json:"ledgerID"`
	Timestamp        time.Time             `json:"timestamp"`
	Description      string                `json:"description"`
	Posted           bool                  `json:"posted"`
	Amount           decimal.Decimal       `json:"amount"`
	OriginalEntryID  *string               `json:"originalEntryID,omitempty"`
	ReversingEntryID *string               `json:"reversingEntryID,omitempty"`
	CreatedAt        time.Time             `json:"createdAt"`
	CreatedBy        string                `json:"createdBy"`
	Transactions     []TransactionResponse `json:"transactions,omitempty"`
}

// ToTransactionResponse converts a domain.Transaction to TransactionResponse DTO.
func ToTransactionResponse(txn *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:  txn.TransactionID,
		JournalEntryID: txn.JournalEntryID,
		AccountID:      txn.AccountID,
		Amount:         txn.Amount,
		Type:           string(txn.TransactionType),
		Notes:          txn.Notes,
	}
}

// ToTransactionResponses converts a slice of domain.Transaction to []TransactionResponse.
func ToTransactionResponses(txns []domain.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(txns))
	for i, txn := range txns {
		responses[i] = ToTransactionResponse(&txn)
	}
	return responses
}

// ToJournalEntryResponse converts a domain.JournalEntry to JournalEntryResponse DTO.
func ToJournalEntryResponse(e *domain.JournalEntry) JournalEntryResponse {
	resp := JournalEntryResponse{
		JournalEntryID:   e.JournalEntryID,
		LedgerID:         e.LedgerID,
		Timestamp:        e.Timestamp,
		Description:      e.Description,
		Posted:           e.Posted,
		Amount:           e.Amount,
		OriginalEntryID:  e.OriginalEntryID,
		ReversingEntryID: e.ReversingEntryID,
		CreatedAt:        e.CreatedAt,
		CreatedBy:        e.CreatedBy,
	}
	if len(e.Transactions) > 0 {
		resp.Transactions = ToTransactionResponses(e.Transactions)
	}
	return resp
}

// ListEntriesParams holds the filters for listing journal entries.
type ListEntriesParams struct {
	Limit               int     `json:"limit"`
	NextToken           *string `json:"nextToken,omitempty"`
	IncludeReversals    bool    `json:"includeReversals"`
	IncludeTransactions bool    `json:"includeTransactions"`
}

// ListEntriesResponse wraps a paginated list of journal entries.
type ListEntriesResponse struct {
	Entries   []JournalEntryResponse `json:"entries"`
	NextToken *string                `json:"nextToken,omitempty"`
}

// ListTransactionsParams holds the filters for listing transactions by account.
type ListTransactionsParams struct {
	Limit     int     `json:"limit"`
	NextToken *string `json:"nextToken,omitempty"`
}

// ListTransactionsResponse wraps a paginated list of transactions.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}
