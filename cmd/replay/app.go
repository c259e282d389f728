package main

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"crisisReplay/internal/config"
	"crisisReplay/internal/finance"
	"crisisReplay/internal/replay"
	"crisisReplay/internal/repository"
	"crisisReplay/internal/storage"
)

// priceCacheMaxAge bounds how long fetched closes are reused. Windows that end
// in the past do not change, but providers do fix bad prints.
const priceCacheMaxAge = 7 * 24 * time.Hour

// app holds what every command shares: config, logger, sqlite store and the
// replay service on top of the price source chain.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	db     *sql.DB
	store  *storage.Store
	prices finance.PriceSource
	svc    *replay.Service
	pg     *repository.Database
}

func newLogger() *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if *debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := newLogger()

	// Ensure parent directory for the DB exists
	_ = os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755)
	db, err := storage.OpenSQLite("file:" + cfg.DBPath + "?_fk=1")
	if err != nil {
		return nil, err
	}
	if err := storage.InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	logger.Debug("db: schema ensured", zap.String("path", cfg.DBPath))

	a := &app{cfg: cfg, logger: logger, db: db, store: storage.NewStore(db)}

	var sources []finance.PriceSource
	if cfg.PriceDBURL != "" {
		pg, err := repository.NewDatabase(ctx, cfg.PriceDBURL)
		if err != nil {
			// the public providers still work without the local database
			logger.Warn("prices: postgres unavailable", zap.Error(err))
		} else {
			a.pg = pg
			sources = append(sources, pg)
		}
	}
	sources = append(sources, finance.NewYahooSource(logger), finance.NewStooqSource(logger))
	a.prices = finance.NewCachingSource(finance.NewFallbackSource(logger, sources...), a.store, priceCacheMaxAge, logger)

	catalog, err := cfg.Catalog()
	if err != nil {
		a.Close()
		return nil, errors.Wrap(err, "crisis catalog")
	}
	a.svc = replay.NewService(catalog, a.prices, logger,
		replay.WithRunStore(a.store),
		replay.WithDefaultTickers(cfg.DefaultTickers),
		replay.WithRecoveryMonths(cfg.RecoveryMonths),
		replay.WithSimulation(finance.WithInitialValue(cfg.InitialValue), finance.WithRiskFreeRate(cfg.RiskFreeRate)),
	)
	return a, nil
}

func (a *app) Close() {
	if a.pg != nil {
		a.pg.Close()
	}
	a.db.Close()
	_ = a.logger.Sync()
}
