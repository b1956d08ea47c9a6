package services

import (
	portsrepo "github.com/ledgerkeep/ledgerkeep/internal/core/ports/repositories"
	portssvc "github.com/ledgerkeep/ledgerkeep/internal/core/ports/services"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	// Create the container structure first
	container := &portssvc.ServiceContainer{}

	// Initialize entity service first since every other service authorizes through it
	container.Entity = NewEntityService(repos.EntityRepo)

	// Create entity authorizer for service dependencies
	entityAuthorizer := container.Entity.(portssvc.EntityAuthorizerSvc)

	container.User = NewUserService(repos.UserRepo)

	container.Account = NewAccountService(
		repos.AccountRepo,
		WithAccountEntityAuthorizer(entityAuthorizer),
	)

	container.Ledger = NewLedgerService(
		repos.LedgerRepo,
		repos.JournalEntryRepo,
		repos.EntityRepo,
		WithLedgerEntityAuthorizer(entityAuthorizer),
	)

	container.JournalEntry = NewJournalEntryService(
		repos.JournalEntryRepo,
		repos.LedgerRepo,
		repos.EntityRepo,
		container.Account,
		WithEntryEntityAuthorizer(entityAuthorizer),
	)

	container.Reporting = NewReportingService(
		repos.ReportingRepo,
		WithReportingEntityAuthorizer(entityAuthorizer),
	)

	return container
}
