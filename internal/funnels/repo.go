package funnels

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/testizer/funnel-sync-backend/pkg/db"
	"github.com/testizer/funnel-sync-backend/pkg/db/models"
	"github.com/testizer/funnel-sync-backend/pkg/enums"
)

// UniqueConstraint is the index name enforcing one ledger row per
// (email, funnel_type, test_id).
const UniqueConstraint = "ux_funnel_entries_identity"

// Repository owns the funnel_entries ledger. Nobody else writes the table.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) identityScope(ctx context.Context, email string, funnelType enums.FunnelType, testID *int64) *gorm.DB {
	scope := r.db.WithContext(ctx).
		Model(&models.FunnelEntry{}).
		Where("email = ? AND funnel_type = ?", email, funnelType)
	if testID != nil {
		scope = scope.Where("test_id = ?", *testID)
	}
	return scope
}

// Exists reports whether a ledger row matches (email, funnel_type[, test_id]).
// Orchestrators use it as a cheap pre-check; the unique index remains the
// authoritative guard.
func (r *Repository) Exists(ctx context.Context, email string, funnelType enums.FunnelType, testID *int64) (bool, error) {
	var count int64
	if err := r.identityScope(ctx, email, funnelType, testID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateIfAbsent inserts one ledger row. A duplicate (email, funnel_type,
// test_id) is absorbed: the unique violation is swallowed and created=false
// is returned instead of an error. This is the idempotency backbone of
// candidate intake.
func (r *Repository) CreateIfAbsent(ctx context.Context, email string, funnelType enums.FunnelType, userID, testID *int64) (uuid.UUID, bool, error) {
	exists, err := r.Exists(ctx, email, funnelType, testID)
	if err != nil {
		return uuid.Nil, false, err
	}
	if exists {
		return uuid.Nil, false, nil
	}

	entry := models.FunnelEntry{
		ID:         uuid.New(),
		Email:      email,
		FunnelType: funnelType,
		UserID:     userID,
		TestID:     testID,
	}
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		if dbpkg.IsUniqueViolation(err, UniqueConstraint) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}
	return entry.ID, true, nil
}

// MarkPurchasedIfUnmarked flips certificate_purchased on every matching row
// that is not yet marked. Multi-row on purpose: historical duplicates get
// repaired in the same pass. The unmarked guard makes repeat calls update
// zero rows.
func (r *Repository) MarkPurchasedIfUnmarked(ctx context.Context, email string, funnelType enums.FunnelType, testID *int64, purchasedAt time.Time) (int64, error) {
	result := r.identityScope(ctx, email, funnelType, testID).
		Where("certificate_purchased = ?", false).
		Updates(map[string]any{
			"certificate_purchased":    true,
			"certificate_purchased_at": purchasedAt,
		})
	return result.RowsAffected, result.Error
}

// FetchUnpurchased returns up to limit entries awaiting a purchase, oldest
// entry first.
func (r *Repository) FetchUnpurchased(ctx context.Context, limit int) ([]models.FunnelEntry, error) {
	var entries []models.FunnelEntry
	err := r.db.WithContext(ctx).
		Where("certificate_purchased = ?", false).
		Order("entered_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// AggregateConversion groups entry and purchase totals by funnel type,
// bounded by the optional entered_at range (from inclusive, to exclusive).
func (r *Repository) AggregateConversion(ctx context.Context, from, to *time.Time) ([]ConversionRow, error) {
	query := r.db.WithContext(ctx).
		Model(&models.FunnelEntry{}).
		Select("funnel_type, COUNT(*) AS total_entries, SUM(CASE WHEN certificate_purchased THEN 1 ELSE 0 END) AS total_purchased").
		Group("funnel_type").
		Order("funnel_type ASC")
	if from != nil {
		query = query.Where("entered_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("entered_at < ?", *to)
	}

	var rows []ConversionRow
	err := query.Scan(&rows).Error
	return rows, err
}
