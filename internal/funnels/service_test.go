package funnels

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/testizer/funnel-sync-backend/pkg/enums"
	"github.com/testizer/funnel-sync-backend/pkg/logger"
	"github.com/testizer/funnel-sync-backend/pkg/outbox"
	"github.com/testizer/funnel-sync-backend/pkg/outbox/payloads"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func setupSyncTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := setupFunnelTestDB(t)
	schema := `
CREATE TABLE IF NOT EXISTS brevo_sync_outbox (
  id TEXT PRIMARY KEY,
  funnel_entry_id TEXT,
  operation_type TEXT NOT NULL,
  payload TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  retry_count INTEGER NOT NULL DEFAULT 0,
  error_message TEXT,
  created_at DATETIME,
  processed_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

type stubCandidateSource struct {
	byType map[enums.FunnelType][]Candidate
}

func (s *stubCandidateSource) FetchCandidates(_ context.Context, funnelType enums.FunnelType, limit int) ([]Candidate, error) {
	candidates := s.byType[funnelType]
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func newSyncService(t *testing.T, db *gorm.DB, source CandidateSource, dryRun bool) (*SyncService, *outbox.Repository) {
	t.Helper()
	outboxRepo := outbox.NewRepository(db)
	service, err := NewSyncService(SyncServiceParams{
		Logger:         testLogger(),
		Repository:     NewRepository(db),
		Outbox:         outbox.NewService(outboxRepo, nil),
		Candidates:     source,
		LanguageListID: 100,
		DryRun:         dryRun,
	})
	require.NoError(t, err)
	return service, outboxRepo
}

func TestSyncCreatesEntryAndEnqueuesUpsert(t *testing.T) {
	db := setupSyncTestDB(t)
	source := &stubCandidateSource{byType: map[enums.FunnelType][]Candidate{
		enums.FunnelLanguage: {{Email: "test@example.com", UserID: int64Ptr(7), TestID: int64Ptr(42)}},
	}}
	service, outboxRepo := newSyncService(t, db, source, false)

	require.NoError(t, service.Sync(context.Background(), 100))

	var entries int64
	require.NoError(t, db.Raw("SELECT COUNT(*) FROM funnel_entries").Scan(&entries).Error)
	assert.Equal(t, int64(1), entries)

	jobs, err := outboxRepo.FetchPending(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, enums.OperationUpsertContact, jobs[0].OperationType)

	var payload payloads.ContactSync
	require.NoError(t, json.Unmarshal(jobs[0].Payload, &payload))
	assert.Equal(t, "test@example.com", payload.Email)
	assert.Equal(t, []int64{100}, payload.ListIDs)
	assert.Equal(t, "language", payload.Attributes["FUNNEL_TYPE"])
}

func TestSyncRerunIsIdempotent(t *testing.T) {
	db := setupSyncTestDB(t)
	source := &stubCandidateSource{byType: map[enums.FunnelType][]Candidate{
		enums.FunnelLanguage: {{Email: "test@example.com", TestID: int64Ptr(1)}},
	}}
	service, outboxRepo := newSyncService(t, db, source, false)

	require.NoError(t, service.Sync(context.Background(), 100))
	require.NoError(t, service.Sync(context.Background(), 100))

	var entries int64
	require.NoError(t, db.Raw("SELECT COUNT(*) FROM funnel_entries").Scan(&entries).Error)
	assert.Equal(t, int64(1), entries)

	jobs, err := outboxRepo.FetchPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, jobs, 1, "no second job for an already-ledgered candidate")
}

func TestSyncSkipsFunnelWithoutDestinationList(t *testing.T) {
	db := setupSyncTestDB(t)
	source := &stubCandidateSource{byType: map[enums.FunnelType][]Candidate{
		enums.FunnelNonLanguage: {{Email: "test@example.com"}},
	}}
	// NonLanguageListID stays zero, so the non_language funnel is disabled.
	service, outboxRepo := newSyncService(t, db, source, false)

	require.NoError(t, service.Sync(context.Background(), 100))

	var entries int64
	require.NoError(t, db.Raw("SELECT COUNT(*) FROM funnel_entries").Scan(&entries).Error)
	assert.Equal(t, int64(0), entries)

	jobs, err := outboxRepo.FetchPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestSyncDryRunWritesNothing(t *testing.T) {
	db := setupSyncTestDB(t)
	source := &stubCandidateSource{byType: map[enums.FunnelType][]Candidate{
		enums.FunnelLanguage: {{Email: "test@example.com"}},
	}}
	service, outboxRepo := newSyncService(t, db, source, true)

	require.NoError(t, service.Sync(context.Background(), 100))

	var entries int64
	require.NoError(t, db.Raw("SELECT COUNT(*) FROM funnel_entries").Scan(&entries).Error)
	assert.Equal(t, int64(0), entries)

	jobs, err := outboxRepo.FetchPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestSyncHonorsPerFunnelLimit(t *testing.T) {
	db := setupSyncTestDB(t)
	source := &stubCandidateSource{byType: map[enums.FunnelType][]Candidate{
		enums.FunnelLanguage: {
			{Email: "a@example.com", TestID: int64Ptr(1)},
			{Email: "b@example.com", TestID: int64Ptr(2)},
			{Email: "c@example.com", TestID: int64Ptr(3)},
		},
	}}
	service, _ := newSyncService(t, db, source, false)

	require.NoError(t, service.Sync(context.Background(), 2))

	var entries int64
	require.NoError(t, db.Raw("SELECT COUNT(*) FROM funnel_entries").Scan(&entries).Error)
	assert.Equal(t, int64(2), entries)
}
