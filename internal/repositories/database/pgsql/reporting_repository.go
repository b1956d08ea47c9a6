package pgsql

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
	portsrepo "github.com/ledgerkeep/ledgerkeep/internal/core/ports/repositories"
)

// reportingRepository implements the ReportingRepository interface.
// Only transactions of posted entries in posted ledgers contribute to any
// report. Reversal pairs are included on both sides, so a reversed entry
// cancels out arithmetically instead of being filtered away.
type reportingRepository struct {
	BaseRepository
}

// newReportingRepository creates a new reporting repository
func newReportingRepository(db *pgxpool.Pool) portsrepo.ReportingRepository {
	return &reportingRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

// appendLedgerFilter narrows a report query to one ledger when requested.
func appendLedgerFilter(query string, args []any, ledgerID *string) (string, []any) {
	if ledgerID == nil {
		return query, args
	}
	query += ` AND l.ledger_id = $` + strconv.Itoa(len(args)+1)
	return query, append(args, *ledgerID)
}

// accountNet is one aggregated row of the net queries, debit minus credit
// per account.
type accountNet struct {
	accountType domain.AccountType
	accountID   string
	name        string
	net         decimal.Decimal
}

// queryAccountNets runs an aggregation whose select list is
// (account_type, account_id, name, net) and scans every row.
func (r *reportingRepository) queryAccountNets(ctx context.Context, query string, args []any) ([]accountNet, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nets []accountNet
	for rows.Next() {
		var n accountNet
		var accountType string
		if err := rows.Scan(&accountType, &n.accountID, &n.name, &n.net); err != nil {
			return nil, err
		}
		n.accountType = domain.AccountType(accountType)
		nets = append(nets, n)
	}
	return nets, rows.Err()
}

// orEmpty replaces a nil section with an empty one so report sections always
// marshal as arrays.
func orEmpty(amounts []domain.AccountAmount) []domain.AccountAmount {
	if amounts == nil {
		return []domain.AccountAmount{}
	}
	return amounts
}

// GetTrialBalanceData retrieves trial balance data as of a specific date
func (r *reportingRepository) GetTrialBalanceData(ctx context.Context, entityID string, ledgerID *string, asOf time.Time) ([]domain.TrialBalanceRow, error) {
	query := `
		SELECT
			a.account_id,
			a.name AS account_name,
			a.account_type,
			SUM(CASE WHEN t.transaction_type = 'DEBIT' THEN t.amount ELSE 0 END) AS total_debit,
			SUM(CASE WHEN t.transaction_type = 'CREDIT' THEN t.amount ELSE 0 END) AS total_credit
		FROM transactions t
		JOIN accounts a ON t.account_id = a.account_id
		JOIN journal_entries e ON t.journal_entry_id = e.journal_entry_id
		JOIN ledgers l ON e.ledger_id = l.ledger_id
		WHERE e.entry_timestamp <= $1
			AND a.entity_id = $2
			AND e.posted = true
			AND l.posted = true
	`
	args := []any{asOf, entityID}
	query, args = appendLedgerFilter(query, args, ledgerID)
	query += ` GROUP BY a.account_id, a.name, a.account_type`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trial balance data: %w", err)
	}
	defer rows.Close()

	result := []domain.TrialBalanceRow{}
	for rows.Next() {
		var row domain.TrialBalanceRow
		var accountType string

		if err := rows.Scan(
			&row.AccountID,
			&row.AccountName,
			&accountType,
			&row.Debit,
			&row.Credit,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trial balance row: %w", err)
		}

		row.AccountType = domain.AccountType(accountType)
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trial balance rows: %w", err)
	}
	return result, nil
}

// GetProfitAndLossData retrieves profit and loss data for a specific period
func (r *reportingRepository) GetProfitAndLossData(ctx context.Context, entityID string, ledgerID *string, from, to time.Time) ([]domain.AccountAmount, []domain.AccountAmount, error) {
	query := `
		SELECT
			a.account_type,
			a.account_id,
			a.name,
			SUM(CASE WHEN t.transaction_type = 'DEBIT' THEN t.amount ELSE -t.amount END) AS net
		FROM transactions t
		JOIN accounts a ON t.account_id = a.account_id
		JOIN journal_entries e ON t.journal_entry_id = e.journal_entry_id
		JOIN ledgers l ON e.ledger_id = l.ledger_id
		WHERE e.entry_timestamp BETWEEN $1 AND $2
			AND a.entity_id = $3
			AND e.posted = true
			AND l.posted = true
			AND a.account_type IN ('REVENUE', 'EXPENSE')
	`
	args := []any{from, to, entityID}
	query, args = appendLedgerFilter(query, args, ledgerID)
	query += ` GROUP BY a.account_type, a.account_id, a.name`

	nets, err := r.queryAccountNets(ctx, query, args)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query profit and loss data: %w", err)
	}

	var revenue, expenses []domain.AccountAmount
	for _, n := range nets {
		amount := domain.AccountAmount{
			AccountID: n.accountID,
			Name:      n.name,
			NetAmount: n.net,
		}

		// The net column is debit minus credit. Revenue grows on the credit
		// side, so its net is inverted for display. Expenses grow on the
		// debit side and keep their sign.
		switch n.accountType {
		case domain.Revenue:
			amount.NetAmount = n.net.Neg()
			revenue = append(revenue, amount)
		case domain.Expense:
			expenses = append(expenses, amount)
		}
	}

	return orEmpty(revenue), orEmpty(expenses), nil
}

// GetBalanceSheetData retrieves balance sheet data as of a specific date
func (r *reportingRepository) GetBalanceSheetData(ctx context.Context, entityID string, ledgerID *string, asOf time.Time) ([]domain.AccountAmount, []domain.AccountAmount, []domain.AccountAmount, error) {
	query := `
		SELECT
			a.account_type,
			a.account_id,
			a.name,
			SUM(CASE WHEN t.transaction_type = 'DEBIT' THEN t.amount ELSE -t.amount END) AS net
		FROM transactions t
		JOIN accounts a ON t.account_id = a.account_id
		JOIN journal_entries e ON t.journal_entry_id = e.journal_entry_id
		JOIN ledgers l ON e.ledger_id = l.ledger_id
		WHERE e.entry_timestamp <= $1
			AND a.entity_id = $2
			AND e.posted = true
			AND l.posted = true
			AND a.account_type IN ('ASSET', 'LIABILITY', 'EQUITY')
	`
	args := []any{asOf, entityID}
	query, args = appendLedgerFilter(query, args, ledgerID)
	query += ` GROUP BY a.account_type, a.account_id, a.name`

	nets, err := r.queryAccountNets(ctx, query, args)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to query balance sheet data: %w", err)
	}

	var assets, liabilities, equity []domain.AccountAmount
	for _, n := range nets {
		amount := domain.AccountAmount{
			AccountID: n.accountID,
			Name:      n.name,
			NetAmount: n.net,
		}

		// Assets grow on the debit side and keep the net sign. Liabilities
		// and equity grow on the credit side, so their net is inverted for
		// display.
		switch n.accountType {
		case domain.Asset:
			assets = append(assets, amount)
		case domain.Liability:
			amount.NetAmount = n.net.Neg()
			liabilities = append(liabilities, amount)
		case domain.Equity:
			amount.NetAmount = n.net.Neg()
			equity = append(equity, amount)
		}
	}

	return orEmpty(assets), orEmpty(liabilities), orEmpty(equity), nil
}
