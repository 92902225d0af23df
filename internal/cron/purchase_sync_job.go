package cron

import (
	"context"
	"fmt"

	"github.com/testizer/funnel-sync-backend/pkg/logger"
)

type purchaseSyncer interface {
	Sync(ctx context.Context, maxRows int) error
}

type PurchaseSyncJobParams struct {
	Logger  *logger.Logger
	Syncer  purchaseSyncer
	MaxRows int
}

// NewPurchaseSyncJob schedules the purchase check for unpurchased entries.
func NewPurchaseSyncJob(params PurchaseSyncJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Syncer == nil {
		return nil, fmt.Errorf("purchase syncer required")
	}
	maxRows := params.MaxRows
	if maxRows <= 0 {
		maxRows = 100
	}
	return &purchaseSyncJob{logg: params.Logger, syncer: params.Syncer, maxRows: maxRows}, nil
}

type purchaseSyncJob struct {
	logg    *logger.Logger
	syncer  purchaseSyncer
	maxRows int
}

func (j *purchaseSyncJob) Name() string { return "purchase-sync" }

func (j *purchaseSyncJob) Run(ctx context.Context) error {
	if err := j.syncer.Sync(ctx, j.maxRows); err != nil {
		return fmt.Errorf("purchase sync: %w", err)
	}
	return nil
}
