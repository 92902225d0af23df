package funnels

import (
	"context"
	"time"

	"github.com/testizer/funnel-sync-backend/pkg/enums"
)

// Candidate is one user eligible to enter a funnel, as reported by an
// external candidate source.
type Candidate struct {
	UserID *int64
	TestID *int64
	Email  string
}

// CandidateSource lists users who completed a test and are not yet in the
// ledger. Implementations live outside this package (see internal/sources).
type CandidateSource interface {
	FetchCandidates(ctx context.Context, funnelType enums.FunnelType, limit int) ([]Candidate, error)
}

// Purchase is a completed certificate purchase found in the external
// source of truth.
type Purchase struct {
	OrderID     int64
	PurchasedAt time.Time
}

// PurchaseSource looks up a completed purchase for a funnel entry. A nil
// Purchase with a nil error means no purchase was found.
type PurchaseSource interface {
	FetchPurchase(ctx context.Context, email string, funnelType enums.FunnelType) (*Purchase, error)
}

// ConversionRow is one funnel's aggregated conversion counters.
type ConversionRow struct {
	FunnelType     enums.FunnelType `gorm:"column:funnel_type"`
	TotalEntries   int64            `gorm:"column:total_entries"`
	TotalPurchased int64            `gorm:"column:total_purchased"`
}

// ConversionRate derives purchased/entries, defined as exactly 0.0 when the
// funnel has no entries so empty reporting periods never fault.
func (r ConversionRow) ConversionRate() float64 {
	if r.TotalEntries == 0 {
		return 0.0
	}
	return float64(r.TotalPurchased) / float64(r.TotalEntries)
}
