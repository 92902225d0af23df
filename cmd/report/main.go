package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/testizer/funnel-sync-backend/internal/analytics"
	"github.com/testizer/funnel-sync-backend/internal/funnels"
	"github.com/testizer/funnel-sync-backend/pkg/config"
	"github.com/testizer/funnel-sync-backend/pkg/db"
	"github.com/testizer/funnel-sync-backend/pkg/enums"
	"github.com/testizer/funnel-sync-backend/pkg/logger"
)

const timeLayout = "2006-01-02 15:04:05 MST"

// Prints a conversion report for one funnel to stdout.
func main() {
	logg := logger.New(logger.Options{ServiceName: "report"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	funnelFlag := flag.String("funnel", "", "funnel type: language|non_language")
	days := flag.Int("days", 30, "trailing window in days, 0 or negative means all time")
	flag.Parse()

	if *funnelFlag == "" {
		fmt.Fprintln(os.Stderr, "missing -funnel (language|non_language)")
		os.Exit(1)
	}
	funnelType, err := enums.ParseFunnelType(*funnelFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "report",
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

	service, err := analytics.NewService(funnels.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create analytics service", err)
		os.Exit(1)
	}

	from, to := analytics.BuildPeriod(*days)
	report, err := service.ConversionReport(context.Background(), funnelType, from, to)
	if err != nil {
		logg.Error(context.Background(), "failed to build conversion report", err)
		os.Exit(1)
	}

	fmt.Println("Funnel conversion report")
	fmt.Println("Funnel type:", report.FunnelType)
	if report.PeriodStart != nil && report.PeriodEnd != nil {
		fmt.Println("Period start:", report.PeriodStart.Format(timeLayout))
		fmt.Println("Period end:  ", report.PeriodEnd.Format(timeLayout))
	} else {
		fmt.Println("Period:       all time")
	}
	fmt.Println("Total entries:  ", report.TotalEntries)
	fmt.Println("Total purchased:", report.TotalPurchased)
	fmt.Printf("Conversion rate: %.2f%%\n", report.RatePercent())
}
