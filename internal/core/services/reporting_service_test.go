package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/ledgerkeep/ledgerkeep/internal/apperrors"
	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
	portsrepo "github.com/ledgerkeep/ledgerkeep/internal/core/ports/repositories"
	portssvc "github.com/ledgerkeep/ledgerkeep/internal/core/ports/services"
	"github.com/ledgerkeep/ledgerkeep/internal/core/services"
)

// --- Mock ReportingRepository ---
type MockReportingRepository struct {
	mock.Mock
}

var _ portsrepo.ReportingRepository = (*MockReportingRepository)(nil)

func (m *MockReportingRepository) GetTrialBalanceData(ctx context.Context, entityID string, ledgerID *string, asOf time.Time) ([]domain.TrialBalanceRow, error) {
	args := m.Called(ctx, entityID, ledgerID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TrialBalanceRow), args.Error(1)
}

func (m *MockReportingRepository) GetProfitAndLossData(ctx context.Context, entityID string, ledgerID *string, from, to time.Time) ([]domain.AccountAmount, []domain.AccountAmount, error) {
	args := m.Called(ctx, entityID, ledgerID, from, to)
	var revenue, expenses []domain.AccountAmount
	if args.Get(0) != nil {
		revenue = args.Get(0).([]domain.AccountAmount)
	}
	if args.Get(1) != nil {
		expenses = args.Get(1).([]domain.AccountAmount)
	}
	return revenue, expenses, args.Error(2)
}

func (m *MockReportingRepository) GetBalanceSheetData(ctx context.Context, entityID string, ledgerID *string, asOf time.Time) ([]domain.AccountAmount, []domain.AccountAmount, []domain.AccountAmount, error) {
	args := m.Called(ctx, entityID, ledgerID, asOf)
	var assets, liabilities, equity []domain.AccountAmount
	if args.Get(0) != nil {
		assets = args.Get(0).([]domain.AccountAmount)
	}
	if args.Get(1) != nil {
		liabilities = args.Get(1).([]domain.AccountAmount)
	}
	if args.Get(2) != nil {
		equity = args.Get(2).([]domain.AccountAmount)
	}
	return assets, liabilities, equity, args.Error(3)
}

// --- Test Suite Setup ---
type ReportingServiceTestSuite struct {
	suite.Suite
	mockReportingRepo *MockReportingRepository
	mockAuthorizer    *MockEntityAuthorizer
	service           portssvc.ReportingService
	entityID          string
	userID            string
}

func (suite *ReportingServiceTestSuite) SetupTest() {
	suite.mockReportingRepo = new(MockReportingRepository)
	suite.mockAuthorizer = new(MockEntityAuthorizer)
	suite.service = services.NewReportingService(
		suite.mockReportingRepo,
		services.WithReportingEntityAuthorizer(suite.mockAuthorizer),
	)
	suite.entityID = uuid.NewString()
	suite.userID = uuid.NewString()
}

func (suite *ReportingServiceTestSuite) expectAuthorized() {
	suite.mockAuthorizer.On("AuthorizeUserAction", mock.Anything, suite.userID, suite.entityID, domain.RoleManager).Return(nil).Once()
}

func accountAmount(name string, amount string) domain.AccountAmount {
	return domain.AccountAmount{
		AccountID: uuid.NewString(),
		Name:      name,
		NetAmount: decimal.RequireFromString(amount),
	}
}

// --- Test Cases ---

func (suite *ReportingServiceTestSuite) TestTrialBalance_Success() {
	ctx := context.Background()
	asOf := time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC)
	rows := []domain.TrialBalanceRow{
		{AccountID: uuid.NewString(), AccountName: "Cash", AccountType: domain.Asset, Debit: decimal.NewFromInt(500), Credit: decimal.Zero},
		{AccountID: uuid.NewString(), AccountName: "Sales", AccountType: domain.Revenue, Debit: decimal.Zero, Credit: decimal.NewFromInt(500)},
	}

	suite.expectAuthorized()
	suite.mockReportingRepo.On("GetTrialBalanceData", ctx, suite.entityID, (*string)(nil), asOf).Return(rows, nil).Once()

	got, err := suite.service.TrialBalance(ctx, suite.entityID, nil, asOf, suite.userID)

	suite.Require().NoError(err)
	suite.Len(got, 2)
	suite.Equal("Cash", got[0].AccountName)
	suite.mockReportingRepo.AssertExpectations(suite.T())
}

func (suite *ReportingServiceTestSuite) TestTrialBalance_Forbidden() {
	ctx := context.Background()

	suite.mockAuthorizer.On("AuthorizeUserAction", mock.Anything, suite.userID, suite.entityID, domain.RoleManager).
		Return(apperrors.ErrForbidden).Once()

	_, err := suite.service.TrialBalance(ctx, suite.entityID, nil, time.Now(), suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.mockReportingRepo.AssertNotCalled(suite.T(), "GetTrialBalanceData", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReportingServiceTestSuite) TestProfitAndLoss_NetsRevenueAgainstExpenses() {
	ctx := context.Background()
	from := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	revenue := []domain.AccountAmount{
		accountAmount("Sales", "500"),
		accountAmount("Interest Income", "250"),
	}
	expenses := []domain.AccountAmount{
		accountAmount("Rent", "300"),
	}

	suite.expectAuthorized()
	suite.mockReportingRepo.On("GetProfitAndLossData", ctx, suite.entityID, (*string)(nil), from, to).
		Return(revenue, expenses, nil).Once()

	report, err := suite.service.ProfitAndLoss(ctx, suite.entityID, nil, from, to, suite.userID)

	suite.Require().NoError(err)
	suite.Len(report.Revenue, 2)
	suite.Len(report.Expenses, 1)
	suite.True(report.NetProfit.Equal(decimal.NewFromInt(450)), "net profit should be 750 - 300, got %s", report.NetProfit)
	suite.mockReportingRepo.AssertExpectations(suite.T())
}

func (suite *ReportingServiceTestSuite) TestBalanceSheet_FoldsRetainedEarningsIntoEquity() {
	ctx := context.Background()
	asOf := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	assets := []domain.AccountAmount{accountAmount("Cash", "450")}
	revenue := []domain.AccountAmount{accountAmount("Sales", "750")}
	expenses := []domain.AccountAmount{accountAmount("Rent", "300")}

	suite.expectAuthorized()
	suite.mockReportingRepo.On("GetBalanceSheetData", ctx, suite.entityID, (*string)(nil), asOf).
		Return(assets, []domain.AccountAmount{}, []domain.AccountAmount{}, nil).Once()
	// Retained earnings cover all activity from the beginning of time
	suite.mockReportingRepo.On("GetProfitAndLossData", ctx, suite.entityID, (*string)(nil), time.Time{}, asOf).
		Return(revenue, expenses, nil).Once()

	report, err := suite.service.BalanceSheet(ctx, suite.entityID, nil, asOf, suite.userID)

	suite.Require().NoError(err)
	suite.Require().Len(report.Equity, 1)
	suite.Equal("Retained Earnings", report.Equity[0].Name)
	suite.True(report.Equity[0].NetAmount.Equal(decimal.NewFromInt(450)))
	suite.True(report.TotalAssets.Equal(decimal.NewFromInt(450)))
	suite.True(report.TotalAssets.Equal(report.TotalLiabilities.Add(report.TotalEquity)),
		"balance sheet should balance: assets %s vs liabilities %s + equity %s",
		report.TotalAssets, report.TotalLiabilities, report.TotalEquity)
	suite.mockReportingRepo.AssertExpectations(suite.T())
}

func (suite *ReportingServiceTestSuite) TestBalanceSheet_NoActivityLeavesEquityAlone() {
	ctx := context.Background()
	asOf := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	equity := []domain.AccountAmount{accountAmount("Owner Capital", "1000")}
	assets := []domain.AccountAmount{accountAmount("Cash", "1000")}

	suite.expectAuthorized()
	suite.mockReportingRepo.On("GetBalanceSheetData", ctx, suite.entityID, (*string)(nil), asOf).
		Return(assets, []domain.AccountAmount{}, equity, nil).Once()
	suite.mockReportingRepo.On("GetProfitAndLossData", ctx, suite.entityID, (*string)(nil), time.Time{}, asOf).
		Return([]domain.AccountAmount{}, []domain.AccountAmount{}, nil).Once()

	report, err := suite.service.BalanceSheet(ctx, suite.entityID, nil, asOf, suite.userID)

	suite.Require().NoError(err)
	suite.Require().Len(report.Equity, 1)
	suite.Equal("Owner Capital", report.Equity[0].Name)
	suite.True(report.TotalEquity.Equal(decimal.NewFromInt(1000)))
	suite.mockReportingRepo.AssertExpectations(suite.T())
}

func TestReportingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReportingServiceTestSuite))
}
