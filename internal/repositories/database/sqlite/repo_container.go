package sqlite

import (
	"database/sql"

	portsrepo "github.com/ledgerkeep/ledgerkeep/internal/core/ports/repositories"
)

func NewRepositoryProvider(db *sql.DB) portsrepo.RepositoryProvider {
	userRepo := newSQLiteUserRepository(db)
	entityRepo := newSQLiteEntityRepository(db)
	ledgerRepo := newSQLiteLedgerRepository(db)
	journalEntryRepo := newSQLiteJournalEntryRepository(db)
	accountRepo := newSQLiteAccountRepository(db)
	reportingRepo := newSQLiteReportingRepository(db)

	return portsrepo.RepositoryProvider{
		UserRepo:         userRepo,
		EntityRepo:       entityRepo,
		LedgerRepo:       ledgerRepo,
		JournalEntryRepo: journalEntryRepo,
		AccountRepo:      accountRepo,
		ReportingRepo:    reportingRepo,
	}
}
