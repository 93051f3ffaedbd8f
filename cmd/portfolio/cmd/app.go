package cmd

import (
	"context"
	"fmt"

	"paper-trader/internal/config"
	"paper-trader/internal/database"
	"paper-trader/internal/httpapi"
	"paper-trader/internal/logger"
	"paper-trader/internal/portfolio"
	"paper-trader/internal/supabase"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// backend is a store usable by both the accountant and the read endpoints.
type backend interface {
	portfolio.Store
	httpapi.History
	Close() error
}

var (
	_ backend = (*database.Database)(nil)
	_ backend = (*supabase.Client)(nil)
)

// app is the wired application shared by every command.
type app struct {
	cfg       config.Config
	log       *zap.Logger
	store     backend
	portfolio *portfolio.Portfolio
}

// newApp loads the configuration, opens the configured store and restores
// the portfolio from it.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("could not load config: %w", err)
	}

	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("could not initialize logger: %w", err)
	}
	log.Debug("Configuration loaded", zap.String("backend", cfg.Store.Backend))

	st, err := openStore(ctx, &cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}

	p := portfolio.New(log, st, portfolio.Options{
		StartingCash: decimal.NewFromFloat(cfg.Portfolio.StartingCash),
		MaxHoldings:  cfg.Portfolio.MaxHoldings,
		RecordTrades: cfg.Portfolio.RecordTrades,
	})
	if err := p.Load(ctx); err != nil {
		_ = st.Close()
		_ = log.Sync()
		return nil, fmt.Errorf("could not load portfolio: %w", err)
	}

	return &app{cfg: cfg, log: log, store: st, portfolio: p}, nil
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (backend, error) {
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		db, err := database.NewDatabase(cfg.Store.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Debug("Database connection successful and schema migrated", zap.String("dsn", cfg.Store.DSN))
		return db, nil
	case config.BackendSupabase:
		client := supabase.NewClient(&cfg.Store, log)
		if err := client.Ping(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect to Supabase: %w", err)
		}
		log.Debug("Successfully connected to Supabase")
		return client, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("Failed to close store", zap.Error(err))
	}
	_ = a.log.Sync()
}
