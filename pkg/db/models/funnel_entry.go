package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/testizer/funnel-sync-backend/pkg/enums"
)

// FunnelEntry is the idempotent ledger row for one user in one funnel.
// The tuple (email, funnel_type, test_id) is unique; NULL test_id collides
// with NULL test_id via an expression index so duplicates are absorbed.
type FunnelEntry struct {
	ID                     uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Email                  string           `gorm:"column:email;not null"`
	FunnelType             enums.FunnelType `gorm:"column:funnel_type;not null"`
	UserID                 *int64           `gorm:"column:user_id"`
	TestID                 *int64           `gorm:"column:test_id"`
	EnteredAt              time.Time        `gorm:"column:entered_at;autoCreateTime"`
	CertificatePurchased   bool             `gorm:"column:certificate_purchased;not null;default:false"`
	CertificatePurchasedAt *time.Time       `gorm:"column:certificate_purchased_at"`
}

// TableName keeps the historical table name.
func (FunnelEntry) TableName() string { return "funnel_entries" }
