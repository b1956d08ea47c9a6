package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
	portssvc "github.com/ledgerkeep/ledgerkeep/internal/core/ports/services"
	"github.com/ledgerkeep/ledgerkeep/internal/core/services"
	"github.com/ledgerkeep/ledgerkeep/internal/dto"
	"github.com/ledgerkeep/ledgerkeep/internal/platform/config"
	"github.com/ledgerkeep/ledgerkeep/internal/platform/logging"
	"github.com/ledgerkeep/ledgerkeep/internal/repositories/database/pgsql"
	"github.com/ledgerkeep/ledgerkeep/internal/repositories/database/sqlite"
	"github.com/ledgerkeep/ledgerkeep/pkg/database"
)

func usage() {
	fmt.Fprint(os.Stderr, `ledgerctl manages double entry ledgers from the command line.

Usage:
  ledgerctl <command> [flags]

Commands:
  init      create the database schema on the configured backend
  seed      load a small demo data set for local exploration
  ledger    list|create|post|unpost|lock|unlock|delete|hide
  entry     list|create|post|reverse
  report    trial-balance|pnl|balance-sheet
  close     set or clear the entity accounting closing date

Environment:
  SQLITE_PATH  path to a SQLite database file (preferred when set)
  PGSQL_URL    PostgreSQL connection string
  LOG_LEVEL    debug, info, warn or error (default info)

Run 'ledgerctl <command>' with no flags to see its usage.
`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Structured logs go to stderr so stdout stays clean JSON for piping.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logging.ParseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	ctx := logging.AddLoggerToCtx(context.Background(), logger)

	app := &cli{cfg: cfg, logger: logger}
	if err := app.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		logger.Error("Command failed", slog.String("command", os.Args[1]), slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// cli carries the wired application for the lifetime of one command.
type cli struct {
	cfg    *config.Config
	logger *slog.Logger

	db   *sql.DB       // set when the SQLite backend is active
	pool *pgxpool.Pool // set when the PostgreSQL backend is active
	svc  *portssvc.ServiceContainer
}

func (c *cli) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "init":
		return c.runInit(ctx, args)
	case "seed":
		return c.runSeed(ctx, args)
	case "ledger":
		return c.runLedger(ctx, args)
	case "entry":
		return c.runEntry(ctx, args)
	case "report":
		return c.runReport(ctx, args)
	case "close":
		return c.runClose(ctx, args)
	case "help", "-h", "--help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

// openStore connects the configured backend and wires repositories and services.
// SQLite wins when both backends are configured since it is the local path.
func (c *cli) openStore(ctx context.Context) (func(), error) {
	if c.cfg.SQLitePath != "" {
		db, err := database.NewSQLiteDB(c.cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		c.db = db
		c.svc = services.NewServiceContainer(sqlite.NewRepositoryProvider(db))
		c.logger.Debug("Using SQLite backend", slog.String("path", c.cfg.SQLitePath))
		return func() { database.CloseSQLiteDB(db) }, nil
	}
	if c.cfg.DatabaseURL != "" {
		pool, err := database.NewPgxPool(ctx, c.cfg.DatabaseURL, c.cfg.EnableDBCheck)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database pool: %w", err)
		}
		c.pool = pool
		c.svc = services.NewServiceContainer(pgsql.NewRepositoryProvider(pool))
		c.logger.Debug("Using PostgreSQL backend")
		return func() { database.ClosePgxPool(pool) }, nil
	}
	return nil, errors.New("no storage configured, set SQLITE_PATH or PGSQL_URL")
}

func (c *cli) runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cleanup, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if c.db != nil {
		if err := sqlite.InitSchema(ctx, c.db); err != nil {
			return fmt.Errorf("failed to create sqlite schema: %w", err)
		}
	} else {
		if err := pgsql.InitSchema(ctx, c.pool); err != nil {
			return fmt.Errorf("failed to create postgres schema: %w", err)
		}
	}
	c.logger.Info("Schema created")
	return nil
}

func (c *cli) runSeed(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cleanup, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	user, err := c.svc.User.CreateUser(ctx, dto.CreateUserRequest{Name: "Demo Owner", Email: "owner@demo.test"})
	if err != nil {
		return fmt.Errorf("failed to create demo user: %w", err)
	}

	entity, err := c.svc.Entity.CreateEntity(ctx, dto.CreateEntityRequest{
		Name:        "Demo Books",
		Slug:        "demo-books",
		Description: "Seeded by ledgerctl",
	}, user.UserID)
	if err != nil {
		return fmt.Errorf("failed to create demo entity: %w", err)
	}

	accountIDs := make(map[string]string, 4)
	for _, spec := range []struct {
		name        string
		accountType domain.AccountType
	}{
		{"Cash", domain.Asset},
		{"Sales", domain.Revenue},
		{"Rent", domain.Expense},
		{"Owner Capital", domain.Equity},
	} {
		account, err := c.svc.Account.CreateAccount(ctx, entity.EntityID, dto.CreateAccountRequest{
			Name:        spec.name,
			AccountType: spec.accountType,
		}, user.UserID)
		if err != nil {
			return fmt.Errorf("failed to create account %s: %w", spec.name, err)
		}
		accountIDs[spec.name] = account.AccountID
	}

	ledger, err := c.svc.Ledger.CreateLedger(ctx, entity.EntityID, dto.CreateLedgerRequest{
		Name:        "General Ledger",
		Description: "Demo day to day ledger",
	}, user.UserID)
	if err != nil {
		return fmt.Errorf("failed to create demo ledger: %w", err)
	}

	seedTime := time.Now().UTC().Add(-72 * time.Hour)
	entries := []struct {
		description string
		at          time.Time
		debit       string
		credit      string
		amount      int64
		post        bool
	}{
		{"Opening capital", seedTime, "Cash", "Owner Capital", 1000, true},
		{"Cash sale", seedTime.Add(24 * time.Hour), "Cash", "Sales", 500, true},
		{"Office rent", seedTime.Add(48 * time.Hour), "Rent", "Cash", 200, false},
	}
	entryIDs := make([]string, 0, len(entries))
	for _, seed := range entries {
		entry, err := c.svc.JournalEntry.CreateEntry(ctx, entity.EntityID, ledger.LedgerID, dto.CreateJournalEntryRequest{
			Timestamp:   seed.at,
			Description: seed.description,
			Transactions: []dto.CreateTransactionRequest{
				{AccountID: accountIDs[seed.debit], Amount: decimal.NewFromInt(seed.amount), TransactionType: domain.Debit},
				{AccountID: accountIDs[seed.credit], Amount: decimal.NewFromInt(seed.amount), TransactionType: domain.Credit},
			},
		}, user.UserID)
		if err != nil {
			return fmt.Errorf("failed to create entry %q: %w", seed.description, err)
		}
		if seed.post {
			if _, err := c.svc.JournalEntry.PostEntry(ctx, entity.EntityID, entry.JournalEntryID, user.UserID); err != nil {
				return fmt.Errorf("failed to post entry %q: %w", seed.description, err)
			}
		}
		entryIDs = append(entryIDs, entry.JournalEntryID)
	}

	c.logger.Info("Demo data loaded",
		slog.String("user_id", user.UserID),
		slog.String("entity_id", entity.EntityID),
		slog.String("ledger_id", ledger.LedgerID))

	return printJSON(map[string]any{
		"user":     dto.ToUserResponse(user),
		"entity":   dto.ToEntityResponse(entity),
		"ledger":   dto.ToLedgerResponse(ledger),
		"accounts": accountIDs,
		"entries":  entryIDs,
	})
}

func (c *cli) runLedger(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: ledgerctl ledger <list|create|post|unpost|lock|unlock|delete|hide> [flags]")
	}
	sub, rest := args[0], args[1:]

	fs := flag.NewFlagSet("ledger "+sub, flag.ExitOnError)
	var scope scopeFlags
	scope.register(fs)

	switch sub {
	case "list":
		limit := fs.Int("limit", c.cfg.DefaultPageSize, "maximum number of ledgers per page")
		token := fs.String("token", "", "pagination token from a previous page")
		includeHidden := fs.Bool("include-hidden", false, "include ledgers marked hidden")
		posted := fs.String("posted", "", "filter by posted state, true or false")
		if err := parseScoped(fs, rest, &scope); err != nil {
			return err
		}
		params := dto.ListLedgersParams{Limit: *limit, IncludeHidden: *includeHidden}
		if *token != "" {
			params.NextToken = token
		}
		if *posted != "" {
			value, err := strconv.ParseBool(*posted)
			if err != nil {
				return fmt.Errorf("invalid -posted value %q, want true or false", *posted)
			}
			params.Posted = &value
		}
		cleanup, err := c.openStore(ctx)
		if err != nil {
			return err
		}
		defer cleanup()
		resp, err := c.svc.Ledger.ListLedgers(ctx, scope.entityID, scope.userID, params)
		if err != nil {
			return err
		}
		return printJSON(resp)

	case "create":
		name := fs.String("name", "", "ledger name (required)")
		description := fs.String("desc", "", "ledger description")
		hidden := fs.Bool("hidden", false, "create the ledger hidden from default listings")
		if err := parseScoped(fs, rest, &scope); err != nil {
			return err
		}
		if *name == "" {
			return errors.New("missing required -name flag")
		}
		cleanup, err := c.openStore(ctx)
		if err != nil {
			return err
		}
		defer cleanup()
		ledger, err := c.svc.Ledger.CreateLedger(ctx, scope.entityID, dto.CreateLedgerRequest{
			Name:        *name,
			Description: *description,
			Hidden:      *hidden,
		}, scope.userID)
		if err != nil {
			return err
		}
		return printJSON(dto.ToLedgerResponse(ledger))

	case "post", "unpost", "lock", "unlock":
		ledgerID := fs.String("id", "", "ledger ID (required)")
		dryRun := fs.Bool("dry-run", false, "evaluate the transition without saving it")
		if err := parseScoped(fs, rest, &scope); err != nil {
			return err
		}
		if *ledgerID == "" {
			return errors.New("missing required -id flag")
		}
		cleanup, err := c.openStore(ctx)
		if err != nil {
			return err
		}
		defer cleanup()
		commit := !*dryRun
		var ledger *domain.Ledger
		switch sub {
		case "post":
			ledger, err = c.svc.Ledger.PostLedger(ctx, scope.entityID, *ledgerID, scope.userID, commit)
		case "unpost":
			ledger, err = c.svc.Ledger.UnpostLedger(ctx, scope.entityID, *ledgerID, scope.userID, commit)
		case "lock":
			ledger, err = c.svc.Ledger.LockLedger(ctx, scope.entityID, *ledgerID, scope.userID, commit)
		case "unlock":
			ledger, err = c.svc.Ledger.UnlockLedger(ctx, scope.entityID, *ledgerID, scope.userID, commit)
		}
		if err != nil {
			return err
		}
		return printJSON(dto.ToLedgerResponse(ledger))

	case "delete":
		ledgerID := fs.String("id", "", "ledger ID (required)")
		if err := parseScoped(fs, rest, &scope); err != nil {
			return err
		}
		if *ledgerID == "" {
			return errors.New("missing required -id flag")
		}
		cleanup, err := c.openStore(ctx)
		if err != nil {
			return err
		}
		defer cleanup()
		if err := c.svc.Ledger.DeleteLedger(ctx, scope.entityID, *ledgerID, scope.userID); err != nil {
			return err
		}
		c.logger.Info("Ledger deleted", slog.String("ledger_id", *ledgerID))
		return nil

	case "hide":
		ledgerID := fs.String("id", "", "ledger ID (required)")
		hidden := fs.Bool("hidden", true, "hidden flag value, pass -hidden=false to unhide")
		if err := parseScoped(fs, rest, &scope); err != nil {
			return err
		}
		if *ledgerID == "" {
			return errors.New("missing required -id flag")
		}
		cleanup, err := c.openStore(ctx)
		if err != nil {
			return err
		}
		defer cleanup()
		ledger, err := c.svc.Ledger.UpdateLedger(ctx, scope.entityID, *ledgerID, dto.UpdateLedgerRequest{Hidden: hidden}, scope.userID)
		if err != nil {
			return err
		}
		return printJSON(dto.ToLedgerResponse(ledger))

	default:
		return fmt.Errorf("unknown ledger subcommand %q", sub)
	}
}

func (c *cli) runEntry(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: ledgerctl entry <list|create|post|reverse> [flags]")
	}
	sub, rest := args[0], args[1:]

	fs := flag.NewFlagSet("entry "+sub, flag.ExitOnError)
	var scope scopeFlags
	scope.register(fs)

	switch sub {
	case "list":
		ledgerID := fs.String("ledger", "", "ledger ID (required)")
		limit := fs.Int("limit", c.cfg.DefaultPageSize, "maximum number of entries per page")
		token := fs.String("token", "", "pagination token from a previous page")
		includeReversals := fs.Bool("include-reversals", false, "include reversal pairs in the listing")
		withTransactions := fs.Bool("with-transactions", false, "include transaction lines for each entry")
		if err := parseScoped(fs, rest, &scope); err != nil {
			return err
		}
		if *ledgerID == "" {
			return errors.New("missing required -ledger flag")
		}
		params := dto.ListEntriesParams{
			Limit:               *limit,
			IncludeReversals:    *includeReversals,
			IncludeTransactions: *withTransactions,
		}
		if *token != "" {
			params.NextToken = token
		}
		cleanup, err := c.openStore(ctx)
		if err != nil {
			return err
		}
		defer cleanup()
		resp, err := c.svc.JournalEntry.ListEntries(ctx, scope.entityID, *ledgerID, scope.userID, params)
		if err != nil {
			return err
		}
		return printJSON(resp)

	case "create":
		ledgerID := fs.String("ledger", "", "ledger ID (required)")
		description := fs.String("desc", "", "entry description")
		at := fs.String("at", "", "entry timestamp, RFC3339 or YYYY-MM-DD (default now)")
		var txns txnFlags
		fs.Var(&txns, "txn", "transaction line as accountID:DEBIT|CREDIT:amount, repeatable")
		if err := parseScoped(fs, rest, &scope); err != nil {
			return err
		}
		if *ledgerID == "" {
			return errors.New("missing required -ledger flag")
		}
		timestamp := time.Now().UTC()
		if *at != "" {
			parsed, err := parseTimeFlag(*at)
			if err != nil {
				return err
			}
			timestamp = parsed
		}
		cleanup, err := c.openStore(ctx)
		if err != nil {
			return err
		}
		defer cleanup()
		entry, err := c.svc.JournalEntry.CreateEntry(ctx, scope.entityID, *ledgerID, dto.CreateJournalEntryRequest{
			Timestamp:    timestamp,
			Description:  *description,
			Transactions: txns,
		}, scope.userID)
		if err != nil {
			return err
		}
		return printJSON(dto.ToJournalEntryResponse(entry))

	case "post", "reverse":
		entryID := fs.String("id", "", "journal entry ID (required)")
		if err := parseScoped(fs, rest, &scope); err != nil {
			return err
		}
		if *entryID == "" {
			return errors.New("missing required -id flag")
		}
		cleanup, err := c.openStore(ctx)
		if err != nil {
			return err
		}
		defer cleanup()
		var entry *domain.JournalEntry
		if sub == "post" {
			entry, err = c.svc.JournalEntry.PostEntry(ctx, scope.entityID, *entryID, scope.userID)
		} else {
			entry, err = c.svc.JournalEntry.ReverseEntry(ctx, scope.entityID, *entryID, scope.userID)
		}
		if err != nil {
			return err
		}
		return printJSON(dto.ToJournalEntryResponse(entry))

	default:
		return fmt.Errorf("unknown entry subcommand %q", sub)
	}
}

func (c *cli) runReport(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: ledgerctl report <trial-balance|pnl|balance-sheet> [flags]")
	}
	sub, rest := args[0], args[1:]

	fs := flag.NewFlagSet("report "+sub, flag.ExitOnError)
	var scope scopeFlags
	scope.register(fs)
	ledgerFlag := fs.String("ledger", "", "restrict the report to one ledger")

	switch sub {
	case "trial-balance", "balance-sheet":
		asOfFlag := fs.String("as-of", "", "report cutoff, RFC3339 or YYYY-MM-DD (default now)")
		if err := parseScoped(fs, rest, &scope); err != nil {
			return err
		}
		asOf := time.Now().UTC()
		if *asOfFlag != "" {
			parsed, err := parseTimeFlag(*asOfFlag)
			if err != nil {
				return err
			}
			asOf = parsed
		}
		cleanup, err := c.openStore(ctx)
		if err != nil {
			return err
		}
		defer cleanup()
		ledgerID := optionalString(*ledgerFlag)
		if sub == "trial-balance" {
			rows, err := c.svc.Reporting.TrialBalance(ctx, scope.entityID, ledgerID, asOf, scope.userID)
			if err != nil {
				return err
			}
			return printJSON(dto.ToTrialBalanceResponse(rows, asOf))
		}
		report, err := c.svc.Reporting.BalanceSheet(ctx, scope.entityID, ledgerID, asOf, scope.userID)
		if err != nil {
			return err
		}
		return printJSON(dto.ToBalanceSheetResponse(report, asOf))

	case "pnl":
		fromFlag := fs.String("from", "", "period start, RFC3339 or YYYY-MM-DD (required)")
		toFlag := fs.String("to", "", "period end, RFC3339 or YYYY-MM-DD (default now)")
		if err := parseScoped(fs, rest, &scope); err != nil {
			return err
		}
		if *fromFlag == "" {
			return errors.New("missing required -from flag")
		}
		from, err := parseTimeFlag(*fromFlag)
		if err != nil {
			return err
		}
		to := time.Now().UTC()
		if *toFlag != "" {
			parsed, err := parseTimeFlag(*toFlag)
			if err != nil {
				return err
			}
			to = parsed
		}
		cleanup, err := c.openStore(ctx)
		if err != nil {
			return err
		}
		defer cleanup()
		report, err := c.svc.Reporting.ProfitAndLoss(ctx, scope.entityID, optionalString(*ledgerFlag), from, to, scope.userID)
		if err != nil {
			return err
		}
		return printJSON(dto.ToProfitAndLossResponse(report, from, to))

	default:
		return fmt.Errorf("unknown report subcommand %q", sub)
	}
}

func (c *cli) runClose(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("close", flag.ExitOnError)
	var scope scopeFlags
	scope.register(fs)
	dateFlag := fs.String("date", "", "closing date, RFC3339 or YYYY-MM-DD")
	clear := fs.Bool("clear", false, "clear the closing date instead of setting one")
	if err := parseScoped(fs, args, &scope); err != nil {
		return err
	}
	if *clear == (*dateFlag != "") {
		return errors.New("pass exactly one of -date or -clear")
	}

	var closingDate *time.Time
	if !*clear {
		parsed, err := parseTimeFlag(*dateFlag)
		if err != nil {
			return err
		}
		closingDate = &parsed
	}

	cleanup, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()
	entity, err := c.svc.Entity.UpdateEntityClosingDate(ctx, scope.entityID, scope.userID, closingDate)
	if err != nil {
		return err
	}
	return printJSON(dto.ToEntityResponse(entity))
}

// scopeFlags holds the entity and acting user every data command needs.
type scopeFlags struct {
	entityID string
	userID   string
}

func (s *scopeFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&s.entityID, "entity", "", "entity ID the command acts on (required)")
	fs.StringVar(&s.userID, "user", "", "acting user ID (required)")
}

func parseScoped(fs *flag.FlagSet, args []string, scope *scopeFlags) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if scope.entityID == "" {
		return errors.New("missing required -entity flag")
	}
	if scope.userID == "" {
		return errors.New("missing required -user flag")
	}
	return nil
}

// txnFlags collects repeated -txn values of the form accountID:DEBIT:12.50.
type txnFlags []dto.CreateTransactionRequest

func (t *txnFlags) String() string {
	parts := make([]string, 0, len(*t))
	for _, txn := range *t {
		parts = append(parts, fmt.Sprintf("%s:%s:%s", txn.AccountID, txn.TransactionType, txn.Amount))
	}
	return strings.Join(parts, ",")
}

func (t *txnFlags) Set(value string) error {
	parts := strings.SplitN(value, ":", 3)
	if len(parts) != 3 {
		return fmt.Errorf("expected accountID:DEBIT|CREDIT:amount, got %q", value)
	}
	txnType := domain.TransactionType(strings.ToUpper(parts[1]))
	if txnType != domain.Debit && txnType != domain.Credit {
		return fmt.Errorf("transaction type must be DEBIT or CREDIT, got %q", parts[1])
	}
	amount, err := decimal.NewFromString(parts[2])
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", parts[2], err)
	}
	*t = append(*t, dto.CreateTransactionRequest{
		AccountID:       parts[0],
		Amount:          amount,
		TransactionType: txnType,
	})
	return nil
}

func parseTimeFlag(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, want RFC3339 or YYYY-MM-DD", value)
	}
	return t.UTC(), nil
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
