package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalEntry is the persistence model for a journal entry row.
type JournalEntry struct {
	JournalEntryID   string          `json:"journalEntryID"`   // Primary Key (e.g., UUID)
	LedgerID         string          `json:"ledgerID"`         // FK -> ledgers.ledger_id (Not Null)
	Timestamp        time.Time       `json:"timestamp"`        // Accounting date of the event
	Description      string          `json:"description"`      // Nullable user description
	Posted           bool            `json:"posted"`           // Draft entries stay out of reports
	Amount           decimal.Decimal `json:"amount"`           // Total debit amount
	OriginalEntryID  *string         `json:"originalEntryID"`  // Nullable reversal linkage
	ReversingEntryID *string         `json:"reversingEntryID"` // Nullable reversal linkage
	AuditFields
}
