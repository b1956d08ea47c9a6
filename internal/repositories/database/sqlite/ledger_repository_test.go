package sqlite_test

import (
	"time"

	"github.com/ledgerkeep/ledgerkeep/internal/apperrors"
	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
)

func (s *SQLiteRepositoryTestSuite) TestLedgerStateUpdateAndVersioning() {
	s.seedEntity("entity-1", "acme-corp")
	ledger := s.seedLedger("ledger-1", "entity-1", false, false, s.now)

	ledger.Posted = true
	s.Require().NoError(s.repos.LedgerRepo.UpdateLedgerState(s.ctx, ledger))

	found, err := s.repos.LedgerRepo.FindLedgerByID(s.ctx, "ledger-1")
	s.Require().NoError(err)
	s.True(found.Posted)
	s.False(found.Locked)
	s.Equal(int64(2), found.Version)
	s.Equal(domain.StatePosted, found.State())

	// The stale struct still carries version 1.
	ledger.Locked = true
	err = s.repos.LedgerRepo.UpdateLedgerState(s.ctx, ledger)
	s.ErrorIs(err, apperrors.ErrConflict)
}

func (s *SQLiteRepositoryTestSuite) TestListLedgersVisibility() {
	s.seedUser("user-member", "member@example.com")
	s.seedUser("user-removed", "removed@example.com")
	s.seedEntity("entity-1", "acme-corp")
	s.seedMember("user-member", "entity-1", domain.RoleAdmin)
	s.seedMember("user-removed", "entity-1", domain.RoleRemoved)

	s.seedLedger("ledger-draft", "entity-1", false, false, s.now)
	s.seedLedger("ledger-posted", "entity-1", true, false, s.now.Add(time.Minute))
	s.seedLedger("ledger-hidden", "entity-1", false, true, s.now.Add(2*time.Minute))

	visible, _, err := s.repos.LedgerRepo.ListLedgersByEntityForUser(s.ctx, "entity-1", "user-member", 10, nil, false, nil)
	s.Require().NoError(err)
	s.Len(visible, 2)

	all, _, err := s.repos.LedgerRepo.ListLedgersByEntityForUser(s.ctx, "entity-1", "user-member", 10, nil, true, nil)
	s.Require().NoError(err)
	s.Len(all, 3)

	posted := true
	onlyPosted, _, err := s.repos.LedgerRepo.ListLedgersByEntityForUser(s.ctx, "entity-1", "user-member", 10, nil, true, &posted)
	s.Require().NoError(err)
	s.Require().Len(onlyPosted, 1)
	s.Equal("ledger-posted", onlyPosted[0].LedgerID)

	// Non-members and removed members get an empty page, not an error.
	none, _, err := s.repos.LedgerRepo.ListLedgersByEntityForUser(s.ctx, "entity-1", "user-stranger", 10, nil, true, nil)
	s.Require().NoError(err)
	s.Empty(none)

	none, _, err = s.repos.LedgerRepo.ListLedgersByEntityForUser(s.ctx, "entity-1", "user-removed", 10, nil, true, nil)
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *SQLiteRepositoryTestSuite) TestListLedgersPagination() {
	s.seedUser("user-1", "one@example.com")
	s.seedEntity("entity-1", "acme-corp")
	s.seedMember("user-1", "entity-1", domain.RoleAdmin)

	ids := []string{"ledger-a", "ledger-b", "ledger-c", "ledger-d", "ledger-e"}
	for i, id := range ids {
		s.seedLedger(id, "entity-1", false, false, s.now.Add(time.Duration(i)*time.Minute))
	}

	// Newest first: e, d | c, b | a.
	page1, token, err := s.repos.LedgerRepo.ListLedgersByEntityForUser(s.ctx, "entity-1", "user-1", 2, nil, false, nil)
	s.Require().NoError(err)
	s.Require().Len(page1, 2)
	s.Equal("ledger-e", page1[0].LedgerID)
	s.Equal("ledger-d", page1[1].LedgerID)
	s.Require().NotNil(token)

	page2, token, err := s.repos.LedgerRepo.ListLedgersByEntityForUser(s.ctx, "entity-1", "user-1", 2, token, false, nil)
	s.Require().NoError(err)
	s.Require().Len(page2, 2)
	s.Equal("ledger-c", page2[0].LedgerID)
	s.Equal("ledger-b", page2[1].LedgerID)
	s.Require().NotNil(token)

	page3, token, err := s.repos.LedgerRepo.ListLedgersByEntityForUser(s.ctx, "entity-1", "user-1", 2, token, false, nil)
	s.Require().NoError(err)
	s.Require().Len(page3, 1)
	s.Equal("ledger-a", page3[0].LedgerID)
	s.Nil(token)

	bad := "not-a-token"
	_, _, err = s.repos.LedgerRepo.ListLedgersByEntityForUser(s.ctx, "entity-1", "user-1", 2, &bad, false, nil)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *SQLiteRepositoryTestSuite) TestUpdateLedgerDetailsKeepsVersion() {
	s.seedEntity("entity-1", "acme-corp")
	ledger := s.seedLedger("ledger-1", "entity-1", false, false, s.now)

	ledger.Name = "Renamed"
	ledger.Hidden = true
	s.Require().NoError(s.repos.LedgerRepo.UpdateLedgerDetails(s.ctx, ledger))

	found, err := s.repos.LedgerRepo.FindLedgerByID(s.ctx, "ledger-1")
	s.Require().NoError(err)
	s.Equal("Renamed", found.Name)
	s.True(found.Hidden)
	s.Equal(int64(1), found.Version)

	ledger.LedgerID = "missing"
	err = s.repos.LedgerRepo.UpdateLedgerDetails(s.ctx, ledger)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *SQLiteRepositoryTestSuite) TestDeleteLedgerCascades() {
	s.seedEntity("entity-1", "acme-corp")
	s.seedAccount("acc-cash", "entity-1", domain.Asset)
	s.seedAccount("acc-revenue", "entity-1", domain.Revenue)
	s.seedLedger("ledger-1", "entity-1", false, false, s.now)
	entry := s.seedEntry("entry-1", "ledger-1", s.now, false, "acc-cash", "acc-revenue", "100.50")

	s.Require().NoError(s.repos.LedgerRepo.DeleteLedger(s.ctx, "ledger-1"))

	_, err := s.repos.LedgerRepo.FindLedgerByID(s.ctx, "ledger-1")
	s.ErrorIs(err, apperrors.ErrNotFound)

	_, err = s.repos.JournalEntryRepo.FindEntryByID(s.ctx, entry.JournalEntryID)
	s.ErrorIs(err, apperrors.ErrNotFound)

	var remaining int
	s.Require().NoError(s.db.QueryRowContext(s.ctx, `SELECT COUNT(*) FROM transactions;`).Scan(&remaining))
	s.Zero(remaining)

	// The accounts the entries touched stay behind.
	_, err = s.repos.AccountRepo.FindAccountByID(s.ctx, "acc-cash")
	s.NoError(err)

	err = s.repos.LedgerRepo.DeleteLedger(s.ctx, "ledger-1")
	s.ErrorIs(err, apperrors.ErrNotFound)
}
