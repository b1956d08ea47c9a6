package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
	portsrepo "github.com/ledgerkeep/ledgerkeep/internal/core/ports/repositories"
	portssvc "github.com/ledgerkeep/ledgerkeep/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

// reportingService implements the ReportingService interface
type reportingService struct {
	BaseService
	reportingRepo portsrepo.ReportingRepository
}

// ReportingServiceOption is a functional option for configuring the reporting service
type ReportingServiceOption func(*reportingService)

// WithReportingEntityAuthorizer sets the entity authorizer for the reporting service.
func WithReportingEntityAuthorizer(authorizer portssvc.EntityAuthorizerSvc) ReportingServiceOption {
	return func(s *reportingService) {
		s.EntityAuthorizer = authorizer
	}
}

// NewReportingService creates a new reporting service with the provided options
func NewReportingService(repo portsrepo.ReportingRepository, options ...ReportingServiceOption) portssvc.ReportingService {
	svc := &reportingService{
		reportingRepo: repo,
	}

	for _, option := range options {
		option(svc)
	}

	return svc
}

// Ensure reportingService implements the ReportingService interface
var _ portssvc.ReportingService = (*reportingService)(nil)

// authorizeReport checks that the requesting user may read reports for the
// entity. Reports expose every account balance, so membership at manager
// level is required.
func (s *reportingService) authorizeReport(ctx context.Context, requestingUserID, entityID, reportName string) error {
	if err := s.AuthorizeUser(ctx, requestingUserID, entityID, domain.RoleManager); err != nil {
		s.LogError(ctx, err, "User not authorized to view "+reportName,
			slog.String("user_id", requestingUserID),
			slog.String("entity_id", entityID))
		return err
	}
	return nil
}

// sumNet totals the NetAmount of every account in a report section.
func sumNet(amounts []domain.AccountAmount) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a.NetAmount)
	}
	return total
}

// TrialBalance generates a trial balance report as of a specific date
func (s *reportingService) TrialBalance(ctx context.Context, entityID string, ledgerID *string, asOf time.Time, requestingUserID string) ([]domain.TrialBalanceRow, error) {
	if err := s.authorizeReport(ctx, requestingUserID, entityID, "trial balance"); err != nil {
		return nil, err
	}

	trialBalanceRows, err := s.reportingRepo.GetTrialBalanceData(ctx, entityID, ledgerID, asOf)
	if err != nil {
		s.LogError(ctx, err, "Failed to retrieve trial balance data",
			slog.String("entity_id", entityID),
			slog.String("asOf", asOf.Format(time.RFC3339)))
		return nil, fmt.Errorf("failed to retrieve trial balance data: %w", err)
	}

	s.LogInfo(ctx, "Trial balance report generated",
		slog.String("entity_id", entityID),
		slog.String("asOf", asOf.Format(time.RFC3339)),
		slog.Int("row_count", len(trialBalanceRows)))
	return trialBalanceRows, nil
}

// ProfitAndLoss generates a profit and loss report for a specific period
func (s *reportingService) ProfitAndLoss(ctx context.Context, entityID string, ledgerID *string, from, to time.Time, requestingUserID string) (*domain.PAndLReport, error) {
	if err := s.authorizeReport(ctx, requestingUserID, entityID, "profit and loss"); err != nil {
		return nil, err
	}

	revenue, expenses, err := s.reportingRepo.GetProfitAndLossData(ctx, entityID, ledgerID, from, to)
	if err != nil {
		s.LogError(ctx, err, "Failed to retrieve profit and loss data",
			slog.String("entity_id", entityID),
			slog.String("from", from.Format(time.RFC3339)),
			slog.String("to", to.Format(time.RFC3339)))
		return nil, fmt.Errorf("failed to retrieve profit and loss data: %w", err)
	}

	report := &domain.PAndLReport{
		Revenue:   revenue,
		Expenses:  expenses,
		NetProfit: sumNet(revenue).Sub(sumNet(expenses)),
	}

	s.LogInfo(ctx, "Profit and loss report generated",
		slog.String("entity_id", entityID),
		slog.String("from", from.Format(time.RFC3339)),
		slog.String("to", to.Format(time.RFC3339)),
		slog.Int("revenue_accounts", len(revenue)),
		slog.Int("expense_accounts", len(expenses)))
	return report, nil
}

// BalanceSheet generates a balance sheet report as of a specific date.
// Net income up to the report date is folded into equity as retained
// earnings so that assets equal liabilities plus equity.
func (s *reportingService) BalanceSheet(ctx context.Context, entityID string, ledgerID *string, asOf time.Time, requestingUserID string) (*domain.BalanceSheetReport, error) {
	if err := s.authorizeReport(ctx, requestingUserID, entityID, "balance sheet"); err != nil {
		return nil, err
	}

	assets, liabilities, equity, err := s.reportingRepo.GetBalanceSheetData(ctx, entityID, ledgerID, asOf)
	if err != nil {
		s.LogError(ctx, err, "Failed to retrieve balance sheet data",
			slog.String("entity_id", entityID),
			slog.String("asOf", asOf.Format(time.RFC3339)))
		return nil, fmt.Errorf("failed to retrieve balance sheet data: %w", err)
	}

	// Retained earnings is all revenue and expense activity up to the report
	// date, netted. The zero from bound makes the period open-ended at the
	// start.
	revenue, expenses, err := s.reportingRepo.GetProfitAndLossData(ctx, entityID, ledgerID, time.Time{}, asOf)
	if err != nil {
		s.LogError(ctx, err, "Failed to retrieve retained earnings data",
			slog.String("entity_id", entityID),
			slog.String("asOf", asOf.Format(time.RFC3339)))
		return nil, fmt.Errorf("failed to retrieve retained earnings data: %w", err)
	}

	if retainedEarnings := sumNet(revenue).Sub(sumNet(expenses)); !retainedEarnings.IsZero() {
		equity = append(equity, domain.AccountAmount{
			Name:      "Retained Earnings",
			NetAmount: retainedEarnings,
		})
	}

	report := &domain.BalanceSheetReport{
		Assets:           assets,
		Liabilities:      liabilities,
		Equity:           equity,
		TotalAssets:      sumNet(assets),
		TotalLiabilities: sumNet(liabilities),
		TotalEquity:      sumNet(equity),
	}

	s.LogInfo(ctx, "Balance sheet report generated",
		slog.String("entity_id", entityID),
		slog.String("asOf", asOf.Format(time.RFC3339)),
		slog.Int("asset_accounts", len(assets)),
		slog.Int("liability_accounts", len(liabilities)),
		slog.Int("equity_accounts", len(equity)))
	return report, nil
}
