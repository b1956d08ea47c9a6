package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/ledgerkeep/ledgerkeep/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	userRepo := newPgxUserRepository(dbPool)
	entityRepo := newPgxEntityRepository(dbPool)
	ledgerRepo := newPgxLedgerRepository(dbPool)
	journalEntryRepo := newPgxJournalEntryRepository(dbPool)
	accountRepo := newPgxAccountRepository(dbPool)
	reportingRepo := newReportingRepository(dbPool)

	return portsrepo.RepositoryProvider{
		UserRepo:         userRepo,
		EntityRepo:       entityRepo,
		LedgerRepo:       ledgerRepo,
		JournalEntryRepo: journalEntryRepo,
		AccountRepo:      accountRepo,
		ReportingRepo:    reportingRepo,
	}
}
