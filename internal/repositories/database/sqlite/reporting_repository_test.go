package sqlite_test

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
)

func findTrialRow(rows []domain.TrialBalanceRow, accountID string) *domain.TrialBalanceRow {
	for i := range rows {
		if rows[i].AccountID == accountID {
			return &rows[i]
		}
	}
	return nil
}

func findAmount(amounts []domain.AccountAmount, accountID string) *domain.AccountAmount {
	for i := range amounts {
		if amounts[i].AccountID == accountID {
			return &amounts[i]
		}
	}
	return nil
}

// seedReportingFixture builds one entity with a posted ledger and a small
// month of activity: a sale, rent paid, owner capital and a bank loan.
func (s *SQLiteRepositoryTestSuite) seedReportingFixture() {
	s.seedEntity("entity-1", "acme-corp")
	s.seedAccount("acc-cash", "entity-1", domain.Asset)
	s.seedAccount("acc-sales", "entity-1", domain.Revenue)
	s.seedAccount("acc-rent", "entity-1", domain.Expense)
	s.seedAccount("acc-capital", "entity-1", domain.Equity)
	s.seedAccount("acc-loan", "entity-1", domain.Liability)

	s.seedLedger("ledger-main", "entity-1", true, false, s.now)

	s.seedEntry("entry-sale", "ledger-main", s.now, true, "acc-cash", "acc-sales", "500")
	s.seedEntry("entry-rent", "ledger-main", s.now, true, "acc-rent", "acc-cash", "200")
	s.seedEntry("entry-capital", "ledger-main", s.now, true, "acc-cash", "acc-capital", "1000")
	s.seedEntry("entry-loan", "ledger-main", s.now, true, "acc-cash", "acc-loan", "300")

	// A draft entry and an entry in an unposted ledger must not count.
	s.seedEntry("entry-draft", "ledger-main", s.now, false, "acc-cash", "acc-sales", "999")
	s.seedLedger("ledger-draft", "entity-1", false, false, s.now)
	s.seedEntry("entry-unrecognized", "ledger-draft", s.now, true, "acc-cash", "acc-sales", "777")
}

func (s *SQLiteRepositoryTestSuite) TestTrialBalanceAggregatesPerAccount() {
	s.seedReportingFixture()

	rows, err := s.repos.ReportingRepo.GetTrialBalanceData(s.ctx, "entity-1", nil, s.now.Add(time.Hour))
	s.Require().NoError(err)
	s.Require().Len(rows, 5)

	cash := findTrialRow(rows, "acc-cash")
	s.Require().NotNil(cash)
	s.True(cash.Debit.Equal(decimal.RequireFromString("1800")))
	s.True(cash.Credit.Equal(decimal.RequireFromString("200")))
	s.Equal(domain.Asset, cash.AccountType)

	sales := findTrialRow(rows, "acc-sales")
	s.Require().NotNil(sales)
	s.True(sales.Debit.IsZero())
	s.True(sales.Credit.Equal(decimal.RequireFromString("500")))

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, row := range rows {
		totalDebit = totalDebit.Add(row.Debit)
		totalCredit = totalCredit.Add(row.Credit)
	}
	s.True(totalDebit.Equal(totalCredit), "trial balance must balance, got %s vs %s", totalDebit, totalCredit)

	// Before any activity the report is empty, not an error.
	empty, err := s.repos.ReportingRepo.GetTrialBalanceData(s.ctx, "entity-1", nil, s.now.Add(-time.Minute))
	s.Require().NoError(err)
	s.Empty(empty)

	// The cutoff is inclusive.
	atBoundary, err := s.repos.ReportingRepo.GetTrialBalanceData(s.ctx, "entity-1", nil, s.now)
	s.Require().NoError(err)
	s.Len(atBoundary, 5)
}

func (s *SQLiteRepositoryTestSuite) TestProfitAndLossSigns() {
	s.seedReportingFixture()

	revenue, expenses, err := s.repos.ReportingRepo.GetProfitAndLossData(
		s.ctx, "entity-1", nil, s.now.Add(-time.Hour), s.now.Add(time.Hour))
	s.Require().NoError(err)

	s.Require().Len(revenue, 1)
	s.True(revenue[0].NetAmount.Equal(decimal.RequireFromString("500")), "revenue earned shows positive, got %s", revenue[0].NetAmount)

	s.Require().Len(expenses, 1)
	s.True(expenses[0].NetAmount.Equal(decimal.RequireFromString("200")), "expenses incurred show positive, got %s", expenses[0].NetAmount)

	// A window after all activity yields empty slices.
	revenue, expenses, err = s.repos.ReportingRepo.GetProfitAndLossData(
		s.ctx, "entity-1", nil, s.now.Add(time.Hour), s.now.Add(2*time.Hour))
	s.Require().NoError(err)
	s.Empty(revenue)
	s.NotNil(revenue)
	s.Empty(expenses)
}

func (s *SQLiteRepositoryTestSuite) TestBalanceSheetSigns() {
	s.seedReportingFixture()

	assets, liabilities, equity, err := s.repos.ReportingRepo.GetBalanceSheetData(s.ctx, "entity-1", nil, s.now.Add(time.Hour))
	s.Require().NoError(err)

	s.Require().Len(assets, 1)
	s.True(assets[0].NetAmount.Equal(decimal.RequireFromString("1600")), "cash on hand, got %s", assets[0].NetAmount)

	s.Require().Len(liabilities, 1)
	s.True(liabilities[0].NetAmount.Equal(decimal.RequireFromString("300")), "loan owed shows positive, got %s", liabilities[0].NetAmount)

	s.Require().Len(equity, 1)
	s.True(equity[0].NetAmount.Equal(decimal.RequireFromString("1000")), "capital contributed shows positive, got %s", equity[0].NetAmount)
}

func (s *SQLiteRepositoryTestSuite) TestReportLedgerFilter() {
	s.seedReportingFixture()

	s.seedLedger("ledger-side", "entity-1", true, false, s.now)
	s.seedEntry("entry-side", "ledger-side", s.now, true, "acc-cash", "acc-sales", "40")

	all, err := s.repos.ReportingRepo.GetTrialBalanceData(s.ctx, "entity-1", nil, s.now.Add(time.Hour))
	s.Require().NoError(err)
	cash := findTrialRow(all, "acc-cash")
	s.Require().NotNil(cash)
	s.True(cash.Debit.Equal(decimal.RequireFromString("1840")))

	sideLedger := "ledger-side"
	scoped, err := s.repos.ReportingRepo.GetTrialBalanceData(s.ctx, "entity-1", &sideLedger, s.now.Add(time.Hour))
	s.Require().NoError(err)
	s.Require().Len(scoped, 2)
	cash = findTrialRow(scoped, "acc-cash")
	s.Require().NotNil(cash)
	s.True(cash.Debit.Equal(decimal.RequireFromString("40")))
	s.True(cash.Credit.IsZero())
}

func (s *SQLiteRepositoryTestSuite) TestReversalPairCancelsInReports() {
	s.seedEntity("entity-1", "acme-corp")
	s.seedAccount("acc-cash", "entity-1", domain.Asset)
	s.seedAccount("acc-sales", "entity-1", domain.Revenue)
	s.seedLedger("ledger-main", "entity-1", true, false, s.now)

	original := s.seedEntry("entry-original", "ledger-main", s.now, true, "acc-cash", "acc-sales", "100")

	// The reversal swaps the sides and stays posted, so both entries keep
	// contributing and the report nets to zero.
	reversalID := "entry-reversal"
	reversal := domain.JournalEntry{
		JournalEntryID:  reversalID,
		LedgerID:        "ledger-main",
		Timestamp:       s.now.Add(time.Hour),
		Posted:          true,
		Amount:          original.Amount,
		OriginalEntryID: &original.JournalEntryID,
		AuditFields:     s.audit(s.now.Add(time.Hour)),
	}
	s.Require().NoError(s.repos.JournalEntryRepo.SaveEntry(s.ctx, reversal, []domain.Transaction{
		{TransactionID: "rev-d", JournalEntryID: reversalID, AccountID: "acc-sales", Amount: original.Amount, TransactionType: domain.Debit, AuditFields: s.audit(s.now.Add(time.Hour))},
		{TransactionID: "rev-c", JournalEntryID: reversalID, AccountID: "acc-cash", Amount: original.Amount, TransactionType: domain.Credit, AuditFields: s.audit(s.now.Add(time.Hour))},
	}))
	s.Require().NoError(s.repos.JournalEntryRepo.UpdateEntryPostedAndLinks(
		s.ctx, original.JournalEntryID, true, &reversalID, nil, testActor, s.now.Add(time.Hour)))

	rows, err := s.repos.ReportingRepo.GetTrialBalanceData(s.ctx, "entity-1", nil, s.now.Add(2*time.Hour))
	s.Require().NoError(err)
	cash := findTrialRow(rows, "acc-cash")
	s.Require().NotNil(cash)
	s.True(cash.Debit.Equal(decimal.RequireFromString("100")), "both sides stay visible")
	s.True(cash.Credit.Equal(decimal.RequireFromString("100")))

	revenue, _, err := s.repos.ReportingRepo.GetProfitAndLossData(
		s.ctx, "entity-1", nil, s.now.Add(-time.Hour), s.now.Add(2*time.Hour))
	s.Require().NoError(err)
	s.Require().Len(revenue, 1)
	s.True(revenue[0].NetAmount.IsZero(), "reversed sale nets out, got %s", revenue[0].NetAmount)

	assets, _, _, err := s.repos.ReportingRepo.GetBalanceSheetData(s.ctx, "entity-1", nil, s.now.Add(2*time.Hour))
	s.Require().NoError(err)
	s.Require().Len(assets, 1)
	s.True(assets[0].NetAmount.IsZero())
}
