package repositories

import (
	"context"
	"time"

	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
)

// ReportingRepository defines the aggregation queries behind the financial
// reports. Only transactions of posted entries in posted ledgers contribute.
// A non-nil ledgerID narrows the aggregation to a single ledger.
type ReportingRepository interface {
	// GetTrialBalanceData returns per-account debit and credit totals for
	// everything recorded up to asOf.
	GetTrialBalanceData(ctx context.Context, entityID string, ledgerID *string, asOf time.Time) ([]domain.TrialBalanceRow, error)

	// GetProfitAndLossData returns net amounts for revenue and expense
	// accounts over the period, already signed for display.
	GetProfitAndLossData(ctx context.Context, entityID string, ledgerID *string, from, to time.Time) ([]domain.AccountAmount, []domain.AccountAmount, error)

	// GetBalanceSheetData returns net amounts for asset, liability and
	// equity accounts up to asOf, already signed for display.
	GetBalanceSheetData(ctx context.Context, entityID string, ledgerID *string, asOf time.Time) ([]domain.AccountAmount, []domain.AccountAmount, []domain.AccountAmount, error)
}
