package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/testizer/funnel-sync-backend/pkg/db/models"
	"github.com/testizer/funnel-sync-backend/pkg/enums"
)

// Repository persists Brevo sync jobs in brevo_sync_outbox.
//
// There is no claim/lock step between FetchPending and the mark calls: the
// worker is the single consumer, and a crash between fetch and mark leaves
// the job pending for the next run (at-least-once delivery).
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Enqueue inserts one pending job with the payload snapshot. The caller is
// responsible for not double-enqueueing the same logical event; this layer
// does not dedup.
func (r *Repository) Enqueue(ctx context.Context, funnelEntryID *uuid.UUID, operation enums.OutboxOperationType, payload any) (uuid.UUID, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, err
	}
	job := models.OutboxJob{
		ID:            uuid.New(),
		FunnelEntryID: funnelEntryID,
		OperationType: operation,
		Payload:       raw,
		Status:        enums.JobPending,
	}
	if err := r.db.WithContext(ctx).Create(&job).Error; err != nil {
		return uuid.Nil, err
	}
	return job.ID, nil
}

// FetchPending returns up to limit pending jobs, oldest first. Statuses are
// left untouched.
func (r *Repository) FetchPending(ctx context.Context, limit int) ([]models.OutboxJob, error) {
	var jobs []models.OutboxJob
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.JobPending).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

// MarkSuccess moves a pending job to success. A job already in a terminal
// state is left untouched.
func (r *Repository) MarkSuccess(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.OutboxJob{}).
		Where("id = ? AND status = ?", id, enums.JobPending).
		Updates(map[string]any{
			"status":       enums.JobSuccess,
			"processed_at": time.Now(),
		}).Error
}

// MarkError moves a pending job to error, records the message, and bumps the
// informational retry counter. A job already in a terminal state is left
// untouched.
func (r *Repository) MarkError(ctx context.Context, id uuid.UUID, message string) error {
	return r.db.WithContext(ctx).
		Model(&models.OutboxJob{}).
		Where("id = ? AND status = ?", id, enums.JobPending).
		Updates(map[string]any{
			"status":        enums.JobError,
			"error_message": message,
			"retry_count":   gorm.Expr("retry_count + 1"),
			"processed_at":  time.Now(),
		}).Error
}

// CountByStatus reports how many jobs sit in the given status.
func (r *Repository) CountByStatus(ctx context.Context, status enums.OutboxJobStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OutboxJob{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

// DeleteSucceededBefore removes success jobs processed before the cutoff.
// Error rows are never touched; they are the durable record of what needs
// attention.
func (r *Repository) DeleteSucceededBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("status = ? AND processed_at < ?", enums.JobSuccess, cutoff).
		Delete(&models.OutboxJob{})
	return result.RowsAffected, result.Error
}
