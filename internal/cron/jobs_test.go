package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSyncer struct {
	calledWith int
	err        error
}

func (s *stubSyncer) Sync(_ context.Context, maxRows int) error {
	s.calledWith = maxRows
	return s.err
}

func TestFunnelSyncJobPassesBatchSize(t *testing.T) {
	syncer := &stubSyncer{}
	job, err := NewFunnelSyncJob(FunnelSyncJobParams{Logger: testLogger(), Syncer: syncer, MaxRows: 25})
	require.NoError(t, err)

	assert.Equal(t, "funnel-sync", job.Name())
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 25, syncer.calledWith)
}

func TestFunnelSyncJobWrapsErrors(t *testing.T) {
	syncer := &stubSyncer{err: errors.New("db down")}
	job, err := NewFunnelSyncJob(FunnelSyncJobParams{Logger: testLogger(), Syncer: syncer})
	require.NoError(t, err)

	err = job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "funnel sync")
}

func TestPurchaseSyncJobDefaultsBatchSize(t *testing.T) {
	syncer := &stubSyncer{}
	job, err := NewPurchaseSyncJob(PurchaseSyncJobParams{Logger: testLogger(), Syncer: syncer})
	require.NoError(t, err)

	assert.Equal(t, "purchase-sync", job.Name())
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 100, syncer.calledWith)
}

type stubRetentionRepo struct {
	cutoff  time.Time
	deleted int64
	err     error
}

func (s *stubRetentionRepo) DeleteSucceededBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return s.deleted, s.err
}

func TestOutboxRetentionJobComputesCutoff(t *testing.T) {
	repo := &stubRetentionRepo{deleted: 3}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     testLogger(),
		Repository: repo,
		Retention:  7,
	})
	require.NoError(t, err)

	fixed := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	job.(*outboxRetentionJob).now = func() time.Time { return fixed }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, fixed.Add(-7*24*time.Hour), repo.cutoff)
}

func TestOutboxRetentionJobSurfacesRepoError(t *testing.T) {
	repo := &stubRetentionRepo{err: errors.New("delete failed")}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{Logger: testLogger(), Repository: repo})
	require.NoError(t, err)

	err = job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outbox retention")
}
