package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
	portsrepo "github.com/ledgerkeep/ledgerkeep/internal/core/ports/repositories"
	"github.com/ledgerkeep/ledgerkeep/internal/utils/accounting"
)

// reportingRepository implements the ReportingRepository interface.
// Only transactions of posted entries in posted ledgers contribute to any
// report. Reversal pairs are included on both sides, so a reversed entry
// cancels out arithmetically instead of being filtered away.
//
// Amounts are stored as text, so aggregation happens in Go with exact
// decimal arithmetic instead of SQL SUM, which would go through floats.
type reportingRepository struct {
	db *sql.DB
}

// newSQLiteReportingRepository creates a new reporting repository
func newSQLiteReportingRepository(db *sql.DB) portsrepo.ReportingRepository {
	return &reportingRepository{db: db}
}

// reportLine is one posted transaction line joined with its account.
type reportLine struct {
	accountID   string
	accountName string
	accountType domain.AccountType
	txnType     domain.TransactionType
	amount      decimal.Decimal
}

func (r *reportingRepository) queryReportLines(ctx context.Context, entityID string, ledgerID *string, accountTypes string, timeFilter string, timeArgs ...any) ([]reportLine, error) {
	query := `
		SELECT a.account_id, a.name, a.account_type, t.transaction_type, t.amount
		FROM transactions t
		JOIN accounts a ON t.account_id = a.account_id
		JOIN journal_entries e ON t.journal_entry_id = e.journal_entry_id
		JOIN ledgers l ON e.ledger_id = l.ledger_id
		WHERE ` + timeFilter + `
			AND a.entity_id = ?
			AND e.posted = 1
			AND l.posted = 1
	`
	args := append(append([]any{}, timeArgs...), entityID)

	if accountTypes != "" {
		query += ` AND a.account_type IN (` + accountTypes + `)`
	}
	if ledgerID != nil {
		query += ` AND l.ledger_id = ?`
		args = append(args, *ledgerID)
	}
	query += ` ORDER BY a.name, a.account_id;`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying report lines: %w", err)
	}
	defer rows.Close()

	var lines []reportLine
	for rows.Next() {
		var line reportLine
		var amount string
		if err := rows.Scan(&line.accountID, &line.accountName, &line.accountType, &line.txnType, &amount); err != nil {
			return nil, fmt.Errorf("error scanning report line: %w", err)
		}
		line.amount, err = parseDecimal(amount)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report lines: %w", err)
	}

	return lines, nil
}

// foldSignedAmounts accumulates per account totals, grouped by account type.
// CalculateSignedAmount already yields the display sign for every account
// type, so revenue, liabilities and equity come out positive when they grew
// on the credit side. Accounts keep the name order of the query.
func foldSignedAmounts(lines []reportLine) (map[domain.AccountType][]domain.AccountAmount, error) {
	totals := make(map[string]*domain.AccountAmount)
	types := make(map[string]domain.AccountType)
	order := []string{}

	for _, line := range lines {
		acc, ok := totals[line.accountID]
		if !ok {
			acc = &domain.AccountAmount{AccountID: line.accountID, Name: line.accountName}
			totals[line.accountID] = acc
			types[line.accountID] = line.accountType
			order = append(order, line.accountID)
		}

		signed, err := accounting.CalculateSignedAmount(domain.Transaction{
			AccountID:       line.accountID,
			Amount:          line.amount,
			TransactionType: line.txnType,
		}, line.accountType)
		if err != nil {
			return nil, err
		}
		acc.NetAmount = acc.NetAmount.Add(signed)
	}

	grouped := make(map[domain.AccountType][]domain.AccountAmount)
	for _, id := range order {
		grouped[types[id]] = append(grouped[types[id]], *totals[id])
	}
	return grouped, nil
}

// GetTrialBalanceData retrieves trial balance data as of a specific date
func (r *reportingRepository) GetTrialBalanceData(ctx context.Context, entityID string, ledgerID *string, asOf time.Time) ([]domain.TrialBalanceRow, error) {
	lines, err := r.queryReportLines(ctx, entityID, ledgerID, "", "e.entry_timestamp <= ?", utc(asOf))
	if err != nil {
		return nil, fmt.Errorf("error querying trial balance data: %w", err)
	}

	rowsByID := make(map[string]*domain.TrialBalanceRow)
	order := []string{}

	for _, line := range lines {
		row, ok := rowsByID[line.accountID]
		if !ok {
			row = &domain.TrialBalanceRow{
				AccountID:   line.accountID,
				AccountName: line.accountName,
				AccountType: line.accountType,
			}
			rowsByID[line.accountID] = row
			order = append(order, line.accountID)
		}
		if line.txnType == domain.Debit {
			row.Debit = row.Debit.Add(line.amount)
		} else {
			row.Credit = row.Credit.Add(line.amount)
		}
	}

	result := make([]domain.TrialBalanceRow, 0, len(order))
	for _, id := range order {
		result = append(result, *rowsByID[id])
	}
	return result, nil
}

// GetProfitAndLossData retrieves profit and loss data for a specific period
func (r *reportingRepository) GetProfitAndLossData(ctx context.Context, entityID string, ledgerID *string, from, to time.Time) ([]domain.AccountAmount, []domain.AccountAmount, error) {
	lines, err := r.queryReportLines(ctx, entityID, ledgerID, "'REVENUE', 'EXPENSE'", "e.entry_timestamp BETWEEN ? AND ?", utc(from), utc(to))
	if err != nil {
		return nil, nil, fmt.Errorf("error querying profit and loss data: %w", err)
	}

	grouped, err := foldSignedAmounts(lines)
	if err != nil {
		return nil, nil, err
	}

	revenue := grouped[domain.Revenue]
	if revenue == nil {
		revenue = []domain.AccountAmount{}
	}
	expenses := grouped[domain.Expense]
	if expenses == nil {
		expenses = []domain.AccountAmount{}
	}

	return revenue, expenses, nil
}

// GetBalanceSheetData retrieves balance sheet data as of a specific date
func (r *reportingRepository) GetBalanceSheetData(ctx context.Context, entityID string, ledgerID *string, asOf time.Time) ([]domain.AccountAmount, []domain.AccountAmount, []domain.AccountAmount, error) {
	lines, err := r.queryReportLines(ctx, entityID, ledgerID, "'ASSET', 'LIABILITY', 'EQUITY'", "e.entry_timestamp <= ?", utc(asOf))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error querying balance sheet data: %w", err)
	}

	grouped, err := foldSignedAmounts(lines)
	if err != nil {
		return nil, nil, nil, err
	}

	assets := grouped[domain.Asset]
	if assets == nil {
		assets = []domain.AccountAmount{}
	}
	liabilities := grouped[domain.Liability]
	if liabilities == nil {
		liabilities = []domain.AccountAmount{}
	}
	equity := grouped[domain.Equity]
	if equity == nil {
		equity = []domain.AccountAmount{}
	}

	return assets, liabilities, equity, nil
}
