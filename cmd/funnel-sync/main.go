package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"

	"github.com/testizer/funnel-sync-backend/internal/funnels"
	"github.com/testizer/funnel-sync-backend/internal/sources"
	"github.com/testizer/funnel-sync-backend/pkg/config"
	"github.com/testizer/funnel-sync-backend/pkg/db"
	"github.com/testizer/funnel-sync-backend/pkg/logger"
	"github.com/testizer/funnel-sync-backend/pkg/migrate"
	"github.com/testizer/funnel-sync-backend/pkg/outbox"
)

// One-shot intake run: enqueue new test completions and record them in the
// ledger, then exit. The cron worker runs the same service on a schedule.
func main() {
	logg := logger.New(logger.Options{ServiceName: "funnel-sync"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	maxRows := flag.Int("max-rows", 0, "cap per funnel type, 0 uses the configured default")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "funnel-sync",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	service, err := funnels.NewSyncService(funnels.SyncServiceParams{
		Logger:            logg,
		Repository:        funnels.NewRepository(dbClient.DB()),
		Outbox:            outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		Candidates:        sources.NewTestCandidateSource(dbClient.DB(), cfg.Sync.LookbackDays),
		LanguageListID:    cfg.Brevo.LanguageListID,
		NonLanguageListID: cfg.Brevo.NonLanguageListID,
		DryRun:            cfg.App.DryRun,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create funnel sync service", err)
		os.Exit(1)
	}

	limit := cfg.Sync.MaxRowsPerType
	if *maxRows > 0 {
		limit = *maxRows
	}

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"dry_run":  cfg.App.DryRun,
		"max_rows": limit,
	})
	logg.Info(ctx, "starting funnel sync run")

	if err := service.Sync(ctx, limit); err != nil {
		logg.Error(ctx, "funnel sync run failed", err)
		os.Exit(1)
	}

	logg.Info(ctx, "funnel sync run complete")
}
