package domain

// LedgerState identifies the lifecycle state of a ledger, derived from its
// posted and locked flags.
type LedgerState string

const (
	StateUnposted     LedgerState = "UNPOSTED"
	StatePosted       LedgerState = "POSTED"
	StatePostedLocked LedgerState = "POSTED_LOCKED"
)

// Ledger represents a posting boundary within an entity. Journal entries
// belong to exactly one ledger, and the ledger's lifecycle controls whether
// they count toward reports and whether further state changes are allowed.
type Ledger struct {
	LedgerID    string `json:"ledgerID" db:"ledger_id"` // Primary Key (e.g., UUID)
	EntityID    string `json:"entityID" db:"entity_id"` // FK -> entities.entity_id
	Name        string `json:"name" db:"name"`          // User-defined name for the ledger
	Description string `json:"description" db:"description"`
	Posted      bool   `json:"posted" db:"posted"`   // Whether the ledger's entries are recognized
	Locked      bool   `json:"locked" db:"locked"`   // Whether further state changes are blocked
	Hidden      bool   `json:"hidden" db:"hidden"`   // Display flag, independent of lifecycle
	Version     int64  `json:"version" db:"version"` // Optimistic locking version
	AuditFields
}

// State derives the lifecycle state from the posted and locked flags.
// Locked is only ever true while posted, so the flag pair maps onto exactly
// three states.
func (l *Ledger) State() LedgerState {
	switch {
	case l.Posted && l.Locked:
		return StatePostedLocked
	case l.Posted:
		return StatePosted
	default:
		return StateUnposted
	}
}

// CanPost reports whether the ledger may transition to posted.
func (l *Ledger) CanPost() bool {
	return !l.Posted
}

// CanUnpost reports whether the ledger may return to unposted.
func (l *Ledger) CanUnpost() bool {
	return l.Posted && !l.Locked
}

// CanLock reports whether the ledger may be locked. Only a posted, unlocked
// ledger is lockable.
func (l *Ledger) CanLock() bool {
	return l.Posted && !l.Locked
}

// CanUnlock reports whether the ledger may be unlocked.
func (l *Ledger) CanUnlock() bool {
	return l.Locked && l.Posted
}

// CanDelete reports whether the ledger may be deleted. Posted or locked
// ledgers must be unposted and unlocked first.
func (l *Ledger) CanDelete() bool {
	return !l.Posted && !l.Locked
}

// Post marks the ledger posted. It returns false without mutating when the
// precondition does not hold, so callers can distinguish a transition from a
// no-op.
func (l *Ledger) Post() bool {
	if !l.CanPost() {
		return false
	}
	l.Posted = true
	return true
}

// Unpost returns the ledger to the unposted state. Locked ledgers stay
// untouched and the call reports false.
func (l *Ledger) Unpost() bool {
	if !l.CanUnpost() {
		return false
	}
	l.Posted = false
	return true
}

// Lock freezes a posted ledger against further state changes.
func (l *Ledger) Lock() bool {
	if !l.CanLock() {
		return false
	}
	l.Locked = true
	return true
}

// Unlock releases a locked ledger.
func (l *Ledger) Unlock() bool {
	if !l.CanUnlock() {
		return false
	}
	l.Locked = false
	return true
}
