package models

import "github.com/shopspring/decimal"

// TransactionType indicates whether a transaction line is a Debit or a Credit.
type TransactionType string

const (
	Debit  TransactionType = "DEBIT"
	Credit TransactionType = "CREDIT"
)

// Transaction is the persistence model for one debit or credit line of a
// journal entry. Amount is always positive; the type carries the direction.
type Transaction struct {
	TransactionID   string          `json:"transactionID"`
	JournalEntryID  string          `json:"journalEntryID"`
	AccountID       string          `json:"accountID"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionType TransactionType `json:"transactionType"`
	Notes           string          `json:"notes"`
	AuditFields
}
