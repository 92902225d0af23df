package funnels

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/testizer/funnel-sync-backend/pkg/enums"
	apperrors "github.com/testizer/funnel-sync-backend/pkg/errors"
	"github.com/testizer/funnel-sync-backend/pkg/outbox"
	"github.com/testizer/funnel-sync-backend/pkg/outbox/payloads"
)

type stubPurchaseSource struct {
	byEmail map[string]*Purchase
	calls   int
}

func (s *stubPurchaseSource) FetchPurchase(_ context.Context, email string, _ enums.FunnelType) (*Purchase, error) {
	s.calls++
	return s.byEmail[email], nil
}

func newPurchaseService(t *testing.T, db *gorm.DB, source PurchaseSource, dryRun bool) (*PurchaseService, *outbox.Repository) {
	t.Helper()
	outboxRepo := outbox.NewRepository(db)
	service, err := NewPurchaseService(PurchaseServiceParams{
		Logger:     testLogger(),
		Repository: NewRepository(db),
		Outbox:     outbox.NewService(outboxRepo, nil),
		Purchases:  source,
		DryRun:     dryRun,
	})
	require.NoError(t, err)
	return service, outboxRepo
}

func TestPurchaseSyncMarksEntryAndEnqueuesUpdate(t *testing.T) {
	db := setupSyncTestDB(t)
	repo := NewRepository(db)
	entryID, _, err := repo.CreateIfAbsent(context.Background(), "buyer@example.com", enums.FunnelLanguage, nil, int64Ptr(9))
	require.NoError(t, err)

	purchasedAt := time.Date(2026, 4, 2, 15, 0, 0, 0, time.UTC)
	source := &stubPurchaseSource{byEmail: map[string]*Purchase{
		"buyer@example.com": {OrderID: 555, PurchasedAt: purchasedAt},
	}}
	service, outboxRepo := newPurchaseService(t, db, source, false)

	require.NoError(t, service.Sync(context.Background(), 100))

	var purchased bool
	require.NoError(t, db.Raw("SELECT certificate_purchased FROM funnel_entries WHERE email = ?", "buyer@example.com").Scan(&purchased).Error)
	assert.True(t, purchased)

	jobs, err := outboxRepo.FetchPending(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, enums.OperationUpdateAfterPurchase, jobs[0].OperationType)
	require.NotNil(t, jobs[0].FunnelEntryID)
	assert.Equal(t, entryID, *jobs[0].FunnelEntryID)

	var payload payloads.ContactSync
	require.NoError(t, json.Unmarshal(jobs[0].Payload, &payload))
	assert.Equal(t, "2026-04-02T15:00:00Z", payload.PurchasedAt)
}

func TestPurchaseSyncSkipsEntriesWithoutPurchase(t *testing.T) {
	db := setupSyncTestDB(t)
	repo := NewRepository(db)
	_, _, err := repo.CreateIfAbsent(context.Background(), "window-shopper@example.com", enums.FunnelLanguage, nil, nil)
	require.NoError(t, err)

	source := &stubPurchaseSource{byEmail: map[string]*Purchase{}}
	service, outboxRepo := newPurchaseService(t, db, source, false)

	require.NoError(t, service.Sync(context.Background(), 100))
	assert.Equal(t, 1, source.calls)

	var purchased bool
	require.NoError(t, db.Raw("SELECT certificate_purchased FROM funnel_entries WHERE email = ?", "window-shopper@example.com").Scan(&purchased).Error)
	assert.False(t, purchased)

	jobs, err := outboxRepo.FetchPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestPurchaseSyncRerunEnqueuesNoSecondJob(t *testing.T) {
	db := setupSyncTestDB(t)
	repo := NewRepository(db)
	_, _, err := repo.CreateIfAbsent(context.Background(), "buyer@example.com", enums.FunnelLanguage, nil, nil)
	require.NoError(t, err)

	source := &stubPurchaseSource{byEmail: map[string]*Purchase{
		"buyer@example.com": {OrderID: 1, PurchasedAt: time.Now().UTC()},
	}}
	service, outboxRepo := newPurchaseService(t, db, source, false)

	require.NoError(t, service.Sync(context.Background(), 100))
	// Second run finds nothing unpurchased, so no lookup and no new job.
	require.NoError(t, service.Sync(context.Background(), 100))
	assert.Equal(t, 1, source.calls)

	jobs, err := outboxRepo.FetchPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func TestPurchaseSyncRejectsZeroTimestamp(t *testing.T) {
	db := setupSyncTestDB(t)
	repo := NewRepository(db)
	_, _, err := repo.CreateIfAbsent(context.Background(), "broken@example.com", enums.FunnelLanguage, nil, nil)
	require.NoError(t, err)

	source := &stubPurchaseSource{byEmail: map[string]*Purchase{
		"broken@example.com": {OrderID: 2},
	}}
	service, outboxRepo := newPurchaseService(t, db, source, false)

	err = service.Sync(context.Background(), 100)
	require.Error(t, err)
	typed := apperrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, apperrors.CodeDataIntegrity, typed.Code())

	var purchased bool
	require.NoError(t, db.Raw("SELECT certificate_purchased FROM funnel_entries WHERE email = ?", "broken@example.com").Scan(&purchased).Error)
	assert.False(t, purchased)

	jobs, jobsErr := outboxRepo.FetchPending(context.Background(), 10)
	require.NoError(t, jobsErr)
	assert.Empty(t, jobs)
}

func TestPurchaseSyncDryRunWritesNothing(t *testing.T) {
	db := setupSyncTestDB(t)
	repo := NewRepository(db)
	_, _, err := repo.CreateIfAbsent(context.Background(), "buyer@example.com", enums.FunnelLanguage, nil, nil)
	require.NoError(t, err)

	source := &stubPurchaseSource{byEmail: map[string]*Purchase{
		"buyer@example.com": {OrderID: 3, PurchasedAt: time.Now().UTC()},
	}}
	service, outboxRepo := newPurchaseService(t, db, source, true)

	require.NoError(t, service.Sync(context.Background(), 100))

	var purchased bool
	require.NoError(t, db.Raw("SELECT certificate_purchased FROM funnel_entries WHERE email = ?", "buyer@example.com").Scan(&purchased).Error)
	assert.False(t, purchased)

	jobs, jobsErr := outboxRepo.FetchPending(context.Background(), 10)
	require.NoError(t, jobsErr)
	assert.Empty(t, jobs)
}
