package cron

import (
	"context"
	"fmt"

	"github.com/testizer/funnel-sync-backend/pkg/logger"
)

type funnelSyncer interface {
	Sync(ctx context.Context, maxRowsPerType int) error
}

type FunnelSyncJobParams struct {
	Logger  *logger.Logger
	Syncer  funnelSyncer
	MaxRows int
}

// NewFunnelSyncJob schedules candidate intake: new test completions become
// ledger entries with pending upsert jobs.
func NewFunnelSyncJob(params FunnelSyncJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Syncer == nil {
		return nil, fmt.Errorf("funnel syncer required")
	}
	maxRows := params.MaxRows
	if maxRows <= 0 {
		maxRows = 100
	}
	return &funnelSyncJob{logg: params.Logger, syncer: params.Syncer, maxRows: maxRows}, nil
}

type funnelSyncJob struct {
	logg    *logger.Logger
	syncer  funnelSyncer
	maxRows int
}

func (j *funnelSyncJob) Name() string { return "funnel-sync" }

func (j *funnelSyncJob) Run(ctx context.Context) error {
	if err := j.syncer.Sync(ctx, j.maxRows); err != nil {
		return fmt.Errorf("funnel sync: %w", err)
	}
	return nil
}
