// Package app wires configuration, logging, storage, clients, and services
// into a runnable application. It is the shared core used by both
// cmd/gdb-accounts and cmd/gdb-transactions.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gdbank/gdb/internal/auth"
	accountsclient "github.com/gdbank/gdb/internal/clients/accounts"
	"github.com/gdbank/gdb/internal/common"
	"github.com/gdbank/gdb/internal/interfaces"
	accountssvc "github.com/gdbank/gdb/internal/services/accounts"
	transactionssvc "github.com/gdbank/gdb/internal/services/transactions"
	"github.com/gdbank/gdb/internal/storage/postgres"
)

// App holds everything one running service needs. Exactly one of Accounts or
// Transactions is populated depending on which binary constructed it.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Verifier    *auth.Verifier
	StartupTime time.Time

	Accounts       interfaces.AccountService
	Transactions   interfaces.TransactionService
	AccountsClient interfaces.AccountsClient

	accountStore     interfaces.AccountStore
	transactionStore interfaces.TransactionStore
}

// loadConfig resolves the config path: explicit argument, GDB_CONFIG, then
// the conventional config/ location.
func loadConfig(configPath string) (*common.Config, error) {
	if configPath == "" {
		configPath = os.Getenv("GDB_CONFIG")
	}
	return common.LoadConfig(configPath)
}

// NewAccountsApp initializes the Accounts service: its database, store, and
// business logic.
func NewAccountsApp(ctx context.Context, configPath string) (*App, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(cfg.Logging)
	logger.Info().
		Str("version", common.GetVersion()).
		Str("environment", cfg.Environment).
		Msg("Starting accounts service")

	pool, err := postgres.Open(ctx, cfg.Database, postgres.AccountsSchema, logger)
	if err != nil {
		return nil, err
	}
	store := postgres.NewAccountStore(pool, logger)

	return &App{
		Config:       cfg,
		Logger:       logger,
		Verifier:     auth.NewVerifier(cfg.Auth.JWTSecret, nil, cfg.Auth.GetRevocationTTL()),
		StartupTime:  time.Now(),
		Accounts:     accountssvc.NewService(store, cfg.Rules, logger),
		accountStore: store,
	}, nil
}

// NewTransactionsApp initializes the Transactions service: its database,
// store, the privileged accounts client, and the orchestration logic.
func NewTransactionsApp(ctx context.Context, configPath string) (*App, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(cfg.Logging)
	logger.Info().
		Str("version", common.GetVersion()).
		Str("environment", cfg.Environment).
		Msg("Starting transactions service")

	limits, err := cfg.Rules.PrivilegeTable()
	if err != nil {
		return nil, fmt.Errorf("invalid privilege limits: %w", err)
	}

	pool, err := postgres.Open(ctx, cfg.Database, postgres.TransactionsSchema, logger)
	if err != nil {
		return nil, err
	}
	store := postgres.NewTransactionStore(pool, logger)

	client := accountsclient.NewClient(cfg.Auth.InternalToken,
		accountsclient.WithBaseURL(cfg.Accounts.BaseURL),
		accountsclient.WithTimeout(cfg.Accounts.GetTimeout()),
		accountsclient.WithRateLimit(cfg.Accounts.RateLimit),
		accountsclient.WithLogger(logger),
	)

	// Dedicated append-only file log for money movements.
	journal := common.NewLoggerFromConfig(common.LoggingConfig{
		Level:    "info",
		Outputs:  []string{"file"},
		FilePath: cfg.Journal.FilePath,
	})

	svc := transactionssvc.NewService(store, client, limits, logger, journal,
		cfg.Accounts.CompensationTimeout())

	return &App{
		Config:           cfg,
		Logger:           logger,
		Verifier:         auth.NewVerifier(cfg.Auth.JWTSecret, nil, cfg.Auth.GetRevocationTTL()),
		StartupTime:      time.Now(),
		Transactions:     svc,
		AccountsClient:   client,
		transactionStore: store,
	}, nil
}

// Close releases held resources.
func (a *App) Close() {
	if a.accountStore != nil {
		if err := a.accountStore.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close account store")
		}
	}
	if a.transactionStore != nil {
		if err := a.transactionStore.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close transaction store")
		}
	}
	a.Logger.Info().Msg("Application closed")
}
