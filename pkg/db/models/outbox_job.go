package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/testizer/funnel-sync-backend/pkg/enums"
)

// OutboxJob is one durable Brevo synchronization intent. The payload is an
// immutable snapshot captured at enqueue time; status moves pending→success
// or pending→error and both are terminal for a dispatch attempt.
type OutboxJob struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	FunnelEntryID *uuid.UUID                `gorm:"column:funnel_entry_id;type:uuid"`
	OperationType enums.OutboxOperationType `gorm:"column:operation_type;not null"`
	Payload       json.RawMessage           `gorm:"column:payload;type:jsonb;not null"`
	Status        enums.OutboxJobStatus     `gorm:"column:status;not null;default:pending"`
	RetryCount    int                       `gorm:"column:retry_count;not null;default:0"`
	ErrorMessage  *string                   `gorm:"column:error_message"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime"`
	ProcessedAt   *time.Time                `gorm:"column:processed_at"`
}

// TableName keeps the historical table name.
func (OutboxJob) TableName() string { return "brevo_sync_outbox" }
