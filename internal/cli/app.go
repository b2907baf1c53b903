package cli

import (
	"context"
	"database/sql"
	"fmt"

	"autolytiq-desk/internal/audit"
	"autolytiq-desk/internal/config"
	"autolytiq-desk/internal/database"
	"autolytiq-desk/internal/logger"
	"autolytiq-desk/internal/sequence"
	"autolytiq-desk/internal/service"
	"autolytiq-desk/internal/txmanager"

	"go.uber.org/zap"
)

const serviceName = "deal-engine"

// app is the wired engine: config -> logger -> database -> txmanager -> services
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *sql.DB
	tm     *txmanager.Manager

	deals     *service.DealService
	customers *service.CustomerService
	inventory *service.InventoryService

	closeAudit func()
}

// txOptions converts the TX_* settings
func txOptions(cfg *config.TxConfig) (txmanager.Options, error) {
	level, err := txmanager.ParseLevel(cfg.Isolation)
	if err != nil {
		return txmanager.Options{}, err
	}
	return txmanager.Options{
		Isolation:        level,
		MaxRetries:       cfg.MaxRetries,
		BaseDelay:        cfg.BaseDelay,
		StatementTimeout: cfg.StatementTimeout,
	}, nil
}

func openApp(ctx context.Context, opts *RootOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}

	log := logger.New(logger.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: serviceName,
	})

	txOpts, err := txOptions(&cfg.Tx)
	if err != nil {
		return nil, err
	}

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, err
	}

	recorder, closeAudit, err := audit.NewFromConfig(ctx, cfg, log)
	if err != nil {
		database.Close(db)
		return nil, err
	}

	tm := txmanager.NewManager(db, log, txmanager.NewStats(), txOpts)
	seq := sequence.NewGenerator(log)

	return &app{
		cfg:        cfg,
		logger:     log,
		db:         db,
		tm:         tm,
		deals:      service.NewDealService(tm, seq, recorder, log),
		customers:  service.NewCustomerService(tm, recorder, log),
		inventory:  service.NewInventoryService(tm, seq, recorder, log),
		closeAudit: closeAudit,
	}, nil
}

func (a *app) Close() {
	a.closeAudit()
	if err := database.Close(a.db); err != nil {
		a.logger.Warn("failed to close database", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// withApp opens the engine for one command run
func withApp(ctx context.Context, opts *RootOptions, fn func(a *app) error) error {
	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
