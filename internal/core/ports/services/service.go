package services

// ServiceContainer holds instances of all the application services.
// This is the main entry point for accessing service functionality and
// is used throughout the application, particularly by the CLI commands.
type ServiceContainer struct {
	User         UserSvcFacade
	Entity       EntitySvcFacade
	Ledger       LedgerSvcFacade
	JournalEntry JournalEntrySvcFacade
	Account      AccountSvcFacade
	Reporting    ReportingService
}
