package domain

import "github.com/shopspring/decimal"

// TransactionType indicates whether a transaction line is a Debit or a Credit.
type TransactionType string

const (
	Debit  TransactionType = "DEBIT"
	Credit TransactionType = "CREDIT"
)

// Transaction represents a single line item within a JournalEntry, affecting one account.
type Transaction struct {
	TransactionID   string          `json:"transactionID" db:"transaction_id"`     // Primary Key (e.g., UUID)
	JournalEntryID  string          `json:"journalEntryID" db:"journal_entry_id"`  // FK -> JournalEntry.journalEntryID (Not Null)
	AccountID       string          `json:"accountID" db:"account_id"`             // FK -> Account.accountID (Not Null)
	Amount          decimal.Decimal `json:"amount" db:"amount"`                    // Positive value; Precise decimal type
	TransactionType TransactionType `json:"transactionType" db:"transaction_type"` // DEBIT or CREDIT (Not Null)
	Notes           string          `json:"notes" db:"notes"`                      // Nullable
	AuditFields
}
