package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalEntry represents a dated, balanced accounting event recorded in a
// ledger. The transaction lines carry the debits and credits; Amount holds
// the total debit side for display.
type JournalEntry struct {
	JournalEntryID   string          `json:"journalEntryID" db:"journal_entry_id"` // Primary Key (e.g., UUID)
	LedgerID         string          `json:"ledgerID" db:"ledger_id"`              // FK -> ledgers.ledger_id (Not Null)
	Timestamp        time.Time       `json:"timestamp" db:"entry_timestamp"`       // Accounting date of the event
	Description      string          `json:"description" db:"description"`
	Posted           bool            `json:"posted" db:"posted"` // Draft entries stay out of reports
	Amount           decimal.Decimal `json:"amount" db:"amount"` // Total debit amount; Precise decimal type
	OriginalEntryID  *string         `json:"originalEntryID" db:"original_entry_id"`   // Set on a reversal, points at the entry it reverses
	ReversingEntryID *string         `json:"reversingEntryID" db:"reversing_entry_id"` // Set on a reversed entry, points at its reversal
	AuditFields
	Transactions []Transaction `json:"transactions,omitempty" db:"-"` // Loaded on demand, not a column
}
