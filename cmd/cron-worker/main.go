package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/testizer/funnel-sync-backend/internal/cron"
	"github.com/testizer/funnel-sync-backend/internal/funnels"
	"github.com/testizer/funnel-sync-backend/internal/sources"
	"github.com/testizer/funnel-sync-backend/pkg/config"
	"github.com/testizer/funnel-sync-backend/pkg/db"
	"github.com/testizer/funnel-sync-backend/pkg/logger"
	"github.com/testizer/funnel-sync-backend/pkg/metrics"
	"github.com/testizer/funnel-sync-backend/pkg/migrate"
	"github.com/testizer/funnel-sync-backend/pkg/outbox"
	"github.com/testizer/funnel-sync-backend/pkg/redis"
)

const lockKeyFormat = "testizer:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	funnelRepo := funnels.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	syncService, err := funnels.NewSyncService(funnels.SyncServiceParams{
		Logger:            logg,
		Repository:        funnelRepo,
		Outbox:            outboxService,
		Candidates:        sources.NewTestCandidateSource(dbClient.DB(), cfg.Sync.LookbackDays),
		LanguageListID:    cfg.Brevo.LanguageListID,
		NonLanguageListID: cfg.Brevo.NonLanguageListID,
		DryRun:            cfg.App.DryRun,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create funnel sync service", err)
		os.Exit(1)
	}

	purchaseService, err := funnels.NewPurchaseService(funnels.PurchaseServiceParams{
		Logger:     logg,
		Repository: funnelRepo,
		Outbox:     outboxService,
		Purchases:  sources.NewCertPaymentSource(dbClient.DB()),
		DryRun:     cfg.App.DryRun,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create purchase sync service", err)
		os.Exit(1)
	}

	funnelJob, err := cron.NewFunnelSyncJob(cron.FunnelSyncJobParams{
		Logger:  logg,
		Syncer:  syncService,
		MaxRows: cfg.Sync.MaxRowsPerType,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create funnel sync job", err)
		os.Exit(1)
	}
	purchaseJob, err := cron.NewPurchaseSyncJob(cron.PurchaseSyncJobParams{
		Logger:  logg,
		Syncer:  purchaseService,
		MaxRows: cfg.Sync.PurchaseMaxRows,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create purchase sync job", err)
		os.Exit(1)
	}
	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		Repository: outbox.NewRepository(dbClient.DB()),
		Retention:  cfg.Outbox.RetentionDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(funnelJob, purchaseJob, retentionJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Sync.CronInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "cron-worker",
		"dry_run":     cfg.App.DryRun,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
