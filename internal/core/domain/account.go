package domain

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// Account represents a financial account within the core domain.
// This is the primary representation used by services. Balances are always
// derived from posted transactions, never persisted on the account row.
type Account struct {
	AccountID       string      `json:"accountID" db:"account_id"` // Primary Key (e.g., UUID)
	EntityID        string      `json:"entityID" db:"entity_id"`   // FK -> entities.entity_id (NON-NULL)
	Name            string      `json:"name" db:"name"`            // User-defined name
	AccountType     AccountType `json:"accountType" db:"account_type"` // ASSET, LIABILITY, etc.
	ParentAccountID *string     `json:"parentAccountID" db:"parent_account_id"` // Nullable FK -> accounts.account_id (Self-referencing)
	Description     string      `json:"description" db:"description"`           // Nullable user description
	IsActive        bool        `json:"isActive" db:"is_active"`                // Soft delete or status flag
	AuditFields
}
