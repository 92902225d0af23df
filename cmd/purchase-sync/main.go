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

// One-shot purchase reconciliation: match unpurchased ledger entries against
// paid certificate orders, mark them, and enqueue the contact update.
func main() {
	logg := logger.New(logger.Options{ServiceName: "purchase-sync"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	maxRows := flag.Int("max-rows", 0, "cap on entries checked, 0 uses the configured default")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "purchase-sync",
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

	service, err := funnels.NewPurchaseService(funnels.PurchaseServiceParams{
		Logger:     logg,
		Repository: funnels.NewRepository(dbClient.DB()),
		Outbox:     outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		Purchases:  sources.NewCertPaymentSource(dbClient.DB()),
		DryRun:     cfg.App.DryRun,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create purchase sync service", err)
		os.Exit(1)
	}

	limit := cfg.Sync.PurchaseMaxRows
	if *maxRows > 0 {
		limit = *maxRows
	}

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"dry_run":  cfg.App.DryRun,
		"max_rows": limit,
	})
	logg.Info(ctx, "starting purchase sync run")

	if err := service.Sync(ctx, limit); err != nil {
		logg.Error(ctx, "purchase sync run failed", err)
		os.Exit(1)
	}

	logg.Info(ctx, "purchase sync run complete")
}
