// Package sqlite provides a SQLite implementation of the repository ports.
// It serves single user setups and tests, keeping the same semantics as the
// PostgreSQL implementation. Decimal amounts are stored as text and all
// timestamps are normalized to UTC so lexicographic comparison matches
// chronological order.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema defines the SQL statements to create database tables.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    user_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP NOT NULL,
    created_by TEXT NOT NULL,
    last_updated_at TIMESTAMP NOT NULL,
    last_updated_by TEXT NOT NULL,
    deleted_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS entities (
    entity_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    slug TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT '',
    last_closing_date TIMESTAMP,          -- NULL until a period is closed
    version INTEGER NOT NULL DEFAULT 1,   -- Optimistic locking version
    created_at TIMESTAMP NOT NULL,
    created_by TEXT NOT NULL,
    last_updated_at TIMESTAMP NOT NULL,
    last_updated_by TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS user_entities (
    user_id TEXT NOT NULL REFERENCES users(user_id),
    entity_id TEXT NOT NULL REFERENCES entities(entity_id),
    role TEXT NOT NULL,                   -- ADMIN, MANAGER or REMOVED
    joined_at TIMESTAMP NOT NULL,
    PRIMARY KEY (user_id, entity_id)
);

CREATE TABLE IF NOT EXISTS accounts (
    account_id TEXT PRIMARY KEY,
    entity_id TEXT NOT NULL REFERENCES entities(entity_id),
    name TEXT NOT NULL,
    account_type TEXT NOT NULL,           -- ASSET, LIABILITY, EQUITY, REVENUE, EXPENSE
    parent_account_id TEXT REFERENCES accounts(account_id),
    description TEXT NOT NULL DEFAULT '',
    is_active BOOLEAN NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    created_by TEXT NOT NULL,
    last_updated_at TIMESTAMP NOT NULL,
    last_updated_by TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_accounts_entity
    ON accounts(entity_id);

CREATE TABLE IF NOT EXISTS ledgers (
    ledger_id TEXT PRIMARY KEY,
    entity_id TEXT NOT NULL REFERENCES entities(entity_id),
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    posted BOOLEAN NOT NULL DEFAULT 0,
    locked BOOLEAN NOT NULL DEFAULT 0,
    hidden BOOLEAN NOT NULL DEFAULT 0,
    version INTEGER NOT NULL DEFAULT 1,   -- Optimistic locking version
    created_at TIMESTAMP NOT NULL,
    created_by TEXT NOT NULL,
    last_updated_at TIMESTAMP NOT NULL,
    last_updated_by TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ledgers_entity_created
    ON ledgers(entity_id, created_at);

CREATE TABLE IF NOT EXISTS journal_entries (
    journal_entry_id TEXT PRIMARY KEY,
    ledger_id TEXT NOT NULL REFERENCES ledgers(ledger_id),
    entry_timestamp TIMESTAMP NOT NULL,   -- Accounting date of the event
    description TEXT NOT NULL DEFAULT '',
    posted BOOLEAN NOT NULL DEFAULT 0,
    amount TEXT NOT NULL,                 -- Decimal stored as text
    original_entry_id TEXT,               -- Set on a reversal
    reversing_entry_id TEXT,              -- Set on a reversed entry
    created_at TIMESTAMP NOT NULL,
    created_by TEXT NOT NULL,
    last_updated_at TIMESTAMP NOT NULL,
    last_updated_by TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_journal_entries_ledger_time
    ON journal_entries(ledger_id, entry_timestamp, created_at);

CREATE TABLE IF NOT EXISTS transactions (
    transaction_id TEXT PRIMARY KEY,
    journal_entry_id TEXT NOT NULL REFERENCES journal_entries(journal_entry_id),
    account_id TEXT NOT NULL REFERENCES accounts(account_id),
    amount TEXT NOT NULL,                 -- Decimal stored as text, always positive
    transaction_type TEXT NOT NULL,       -- DEBIT or CREDIT
    notes TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL,
    created_by TEXT NOT NULL,
    last_updated_at TIMESTAMP NOT NULL,
    last_updated_by TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_entry
    ON transactions(journal_entry_id);

CREATE INDEX IF NOT EXISTS idx_transactions_account
    ON transactions(account_id);
`

// InitSchema creates all tables if they don't exist.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to initialize sqlite schema: %w", err)
	}
	return nil
}
