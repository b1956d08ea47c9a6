package sqlite_test

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerkeep/ledgerkeep/internal/apperrors"
	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
)

func (s *SQLiteRepositoryTestSuite) TestSaveEntryRoundtrip() {
	s.seedEntity("entity-1", "acme-corp")
	s.seedAccount("acc-cash", "entity-1", domain.Asset)
	s.seedAccount("acc-revenue", "entity-1", domain.Revenue)
	s.seedLedger("ledger-1", "entity-1", false, false, s.now)

	s.seedEntry("entry-1", "ledger-1", s.now, false, "acc-cash", "acc-revenue", "100.50")

	found, err := s.repos.JournalEntryRepo.FindEntryByID(s.ctx, "entry-1")
	s.Require().NoError(err)
	s.Equal("ledger-1", found.LedgerID)
	s.False(found.Posted)
	s.True(found.Amount.Equal(decimal.RequireFromString("100.50")))
	s.Nil(found.OriginalEntryID)
	s.Nil(found.ReversingEntryID)
	s.True(found.Timestamp.Equal(s.now))

	lines, err := s.repos.JournalEntryRepo.FindTransactionsByEntryID(s.ctx, "entry-1")
	s.Require().NoError(err)
	s.Require().Len(lines, 2)
	byType := map[domain.TransactionType]domain.Transaction{}
	for _, line := range lines {
		byType[line.TransactionType] = line
	}
	s.Equal("acc-cash", byType[domain.Debit].AccountID)
	s.Equal("acc-revenue", byType[domain.Credit].AccountID)
	s.True(byType[domain.Debit].Amount.Equal(byType[domain.Credit].Amount))

	_, err = s.repos.JournalEntryRepo.FindEntryByID(s.ctx, "missing")
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *SQLiteRepositoryTestSuite) TestSaveEntryRollsBackOnBadLine() {
	s.seedEntity("entity-1", "acme-corp")
	s.seedAccount("acc-cash", "entity-1", domain.Asset)
	s.seedLedger("ledger-1", "entity-1", false, false, s.now)

	amt := decimal.RequireFromString("10")
	entry := domain.JournalEntry{
		JournalEntryID: "entry-bad",
		LedgerID:       "ledger-1",
		Timestamp:      s.now,
		Posted:         false,
		Amount:         amt,
		AuditFields:    s.audit(s.now),
	}
	lines := []domain.Transaction{
		{TransactionID: "t-1", JournalEntryID: "entry-bad", AccountID: "acc-cash", Amount: amt, TransactionType: domain.Debit, AuditFields: s.audit(s.now)},
		{TransactionID: "t-2", JournalEntryID: "entry-bad", AccountID: "no-such-account", Amount: amt, TransactionType: domain.Credit, AuditFields: s.audit(s.now)},
	}

	err := s.repos.JournalEntryRepo.SaveEntry(s.ctx, entry, lines)
	s.ErrorIs(err, apperrors.ErrValidation)

	// The header insert must not survive the failed line insert.
	_, err = s.repos.JournalEntryRepo.FindEntryByID(s.ctx, "entry-bad")
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *SQLiteRepositoryTestSuite) TestFindMostRecentPostedEntry() {
	s.seedEntity("entity-1", "acme-corp")
	s.seedAccount("acc-cash", "entity-1", domain.Asset)
	s.seedAccount("acc-revenue", "entity-1", domain.Revenue)
	s.seedLedger("ledger-1", "entity-1", false, false, s.now)

	s.seedEntry("entry-old", "ledger-1", s.now, true, "acc-cash", "acc-revenue", "10")
	s.seedEntry("entry-new", "ledger-1", s.now.Add(2*time.Hour), true, "acc-cash", "acc-revenue", "20")
	s.seedEntry("entry-draft", "ledger-1", s.now.Add(3*time.Hour), false, "acc-cash", "acc-revenue", "30")

	latest, err := s.repos.JournalEntryRepo.FindMostRecentPostedEntry(s.ctx, "ledger-1")
	s.Require().NoError(err)
	s.Equal("entry-new", latest.JournalEntryID)

	// Equal timestamps fall back to creation order.
	tie := domain.JournalEntry{
		JournalEntryID: "entry-tie",
		LedgerID:       "ledger-1",
		Timestamp:      s.now.Add(2 * time.Hour),
		Posted:         true,
		Amount:         decimal.RequireFromString("40"),
		AuditFields: domain.AuditFields{
			CreatedAt:     s.now.Add(5 * time.Hour),
			CreatedBy:     testActor,
			LastUpdatedAt: s.now.Add(5 * time.Hour),
			LastUpdatedBy: testActor,
		},
	}
	s.Require().NoError(s.repos.JournalEntryRepo.SaveEntry(s.ctx, tie, nil))

	latest, err = s.repos.JournalEntryRepo.FindMostRecentPostedEntry(s.ctx, "ledger-1")
	s.Require().NoError(err)
	s.Equal("entry-tie", latest.JournalEntryID)

	s.seedLedger("ledger-empty", "entity-1", false, false, s.now)
	_, err = s.repos.JournalEntryRepo.FindMostRecentPostedEntry(s.ctx, "ledger-empty")
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *SQLiteRepositoryTestSuite) TestListEntriesHidesReversalPairs() {
	s.seedEntity("entity-1", "acme-corp")
	s.seedAccount("acc-cash", "entity-1", domain.Asset)
	s.seedAccount("acc-revenue", "entity-1", domain.Revenue)
	s.seedLedger("ledger-1", "entity-1", false, false, s.now)

	s.seedEntry("entry-normal", "ledger-1", s.now, true, "acc-cash", "acc-revenue", "10")
	original := s.seedEntry("entry-original", "ledger-1", s.now.Add(time.Hour), true, "acc-cash", "acc-revenue", "20")

	reversalID := "entry-reversal"
	reversal := domain.JournalEntry{
		JournalEntryID:  reversalID,
		LedgerID:        "ledger-1",
		Timestamp:       s.now.Add(2 * time.Hour),
		Posted:          true,
		Amount:          original.Amount,
		OriginalEntryID: &original.JournalEntryID,
		AuditFields:     s.audit(s.now.Add(2 * time.Hour)),
	}
	s.Require().NoError(s.repos.JournalEntryRepo.SaveEntry(s.ctx, reversal, []domain.Transaction{
		{TransactionID: "rev-d", JournalEntryID: reversalID, AccountID: "acc-revenue", Amount: original.Amount, TransactionType: domain.Debit, AuditFields: s.audit(s.now.Add(2 * time.Hour))},
		{TransactionID: "rev-c", JournalEntryID: reversalID, AccountID: "acc-cash", Amount: original.Amount, TransactionType: domain.Credit, AuditFields: s.audit(s.now.Add(2 * time.Hour))},
	}))
	s.Require().NoError(s.repos.JournalEntryRepo.UpdateEntryPostedAndLinks(
		s.ctx, original.JournalEntryID, true, &reversalID, nil, testActor, s.now.Add(2*time.Hour)))

	plain, _, err := s.repos.JournalEntryRepo.ListEntriesByLedger(s.ctx, "ledger-1", 10, nil, false)
	s.Require().NoError(err)
	s.Require().Len(plain, 1)
	s.Equal("entry-normal", plain[0].JournalEntryID)

	all, _, err := s.repos.JournalEntryRepo.ListEntriesByLedger(s.ctx, "ledger-1", 10, nil, true)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal("entry-reversal", all[0].JournalEntryID)
	s.Equal("entry-original", all[1].JournalEntryID)
	s.Equal("entry-normal", all[2].JournalEntryID)

	// Both link columns survive the update.
	reloaded, err := s.repos.JournalEntryRepo.FindEntryByID(s.ctx, original.JournalEntryID)
	s.Require().NoError(err)
	s.Require().NotNil(reloaded.ReversingEntryID)
	s.Equal(reversalID, *reloaded.ReversingEntryID)
	s.True(reloaded.Posted)
}

func (s *SQLiteRepositoryTestSuite) TestListEntriesPagination() {
	s.seedEntity("entity-1", "acme-corp")
	s.seedAccount("acc-cash", "entity-1", domain.Asset)
	s.seedAccount("acc-revenue", "entity-1", domain.Revenue)
	s.seedLedger("ledger-1", "entity-1", false, false, s.now)

	ids := []string{"entry-a", "entry-b", "entry-c", "entry-d", "entry-e"}
	for i, id := range ids {
		s.seedEntry(id, "ledger-1", s.now.Add(time.Duration(i)*time.Hour), false, "acc-cash", "acc-revenue", "10")
	}

	page1, token, err := s.repos.JournalEntryRepo.ListEntriesByLedger(s.ctx, "ledger-1", 2, nil, false)
	s.Require().NoError(err)
	s.Require().Len(page1, 2)
	s.Equal("entry-e", page1[0].JournalEntryID)
	s.Equal("entry-d", page1[1].JournalEntryID)
	s.Require().NotNil(token)

	page2, token, err := s.repos.JournalEntryRepo.ListEntriesByLedger(s.ctx, "ledger-1", 2, token, false)
	s.Require().NoError(err)
	s.Require().Len(page2, 2)
	s.Equal("entry-c", page2[0].JournalEntryID)
	s.Equal("entry-b", page2[1].JournalEntryID)
	s.Require().NotNil(token)

	page3, token, err := s.repos.JournalEntryRepo.ListEntriesByLedger(s.ctx, "ledger-1", 2, token, false)
	s.Require().NoError(err)
	s.Require().Len(page3, 1)
	s.Equal("entry-a", page3[0].JournalEntryID)
	s.Nil(token)

	bad := "###"
	_, _, err = s.repos.JournalEntryRepo.ListEntriesByLedger(s.ctx, "ledger-1", 2, &bad, false)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *SQLiteRepositoryTestSuite) TestUpdateEntryPostedAndLinksMissingEntry() {
	err := s.repos.JournalEntryRepo.UpdateEntryPostedAndLinks(s.ctx, "missing", true, nil, nil, testActor, s.now)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *SQLiteRepositoryTestSuite) TestFindTransactionsByEntryIDs() {
	s.seedEntity("entity-1", "acme-corp")
	s.seedAccount("acc-cash", "entity-1", domain.Asset)
	s.seedAccount("acc-revenue", "entity-1", domain.Revenue)
	s.seedLedger("ledger-1", "entity-1", false, false, s.now)

	s.seedEntry("entry-1", "ledger-1", s.now, false, "acc-cash", "acc-revenue", "10")
	s.seedEntry("entry-2", "ledger-1", s.now.Add(time.Hour), false, "acc-cash", "acc-revenue", "20")

	grouped, err := s.repos.JournalEntryRepo.FindTransactionsByEntryIDs(s.ctx, []string{"entry-1", "entry-2", "entry-ghost"})
	s.Require().NoError(err)
	s.Len(grouped["entry-1"], 2)
	s.Len(grouped["entry-2"], 2)
	s.Empty(grouped["entry-ghost"])
	s.NotNil(grouped["entry-ghost"])
}

func (s *SQLiteRepositoryTestSuite) TestListTransactionsByAccountID() {
	s.seedEntity("entity-1", "acme-corp")
	s.seedAccount("acc-cash", "entity-1", domain.Asset)
	s.seedAccount("acc-revenue", "entity-1", domain.Revenue)
	s.seedLedger("ledger-1", "entity-1", true, false, s.now)

	s.seedEntry("entry-1", "ledger-1", s.now, true, "acc-cash", "acc-revenue", "100")
	s.seedEntry("entry-2", "ledger-1", s.now.Add(time.Hour), true, "acc-cash", "acc-revenue", "50")
	s.seedEntry("entry-draft", "ledger-1", s.now.Add(2*time.Hour), false, "acc-cash", "acc-revenue", "25")

	// Only lines of posted entries show, newest entry first.
	page1, token, err := s.repos.JournalEntryRepo.ListTransactionsByAccountID(s.ctx, "entity-1", "acc-cash", 1, nil)
	s.Require().NoError(err)
	s.Require().Len(page1, 1)
	s.Equal("entry-2", page1[0].JournalEntryID)
	s.Equal(domain.Debit, page1[0].TransactionType)
	s.Require().NotNil(token)

	page2, token, err := s.repos.JournalEntryRepo.ListTransactionsByAccountID(s.ctx, "entity-1", "acc-cash", 1, token)
	s.Require().NoError(err)
	s.Require().Len(page2, 1)
	s.Equal("entry-1", page2[0].JournalEntryID)
	s.Nil(token)

	// The entity filter runs through the owning ledger.
	other, _, err := s.repos.JournalEntryRepo.ListTransactionsByAccountID(s.ctx, "entity-other", "acc-cash", 10, nil)
	s.Require().NoError(err)
	s.Empty(other)
}
