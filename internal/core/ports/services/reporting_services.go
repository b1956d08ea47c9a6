package services

import (
	"context"
	"time"

	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
)

// ReportingService defines operations for generating financial reports.
// Reports only reflect transactions of posted entries in posted ledgers, and
// reversal pairs stay in so reversed activity cancels out arithmetically.
// A non-nil ledgerID narrows the report to a single ledger.
type ReportingService interface {
	// TrialBalance lists per-account debit and credit totals as of a date.
	TrialBalance(ctx context.Context, entityID string, ledgerID *string, asOf time.Time, requestingUserID string) ([]domain.TrialBalanceRow, error)

	// ProfitAndLoss nets revenue against expenses over a period.
	ProfitAndLoss(ctx context.Context, entityID string, ledgerID *string, from, to time.Time, requestingUserID string) (*domain.PAndLReport, error)

	// BalanceSheet states assets, liabilities and equity as of a date, with
	// net income to date folded into equity as retained earnings.
	BalanceSheet(ctx context.Context, entityID string, ledgerID *string, asOf time.Time, requestingUserID string) (*domain.BalanceSheetReport, error)
}
