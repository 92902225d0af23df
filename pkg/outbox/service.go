package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/testizer/funnel-sync-backend/pkg/brevo"
	"github.com/testizer/funnel-sync-backend/pkg/enums"
	"github.com/testizer/funnel-sync-backend/pkg/logger"
	"github.com/testizer/funnel-sync-backend/pkg/outbox/payloads"
)

// Service builds payload snapshots for the two sync operations and records
// them through the repository.
type Service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg}
}

// EnqueueUpsert records an upsert_contact job tagged with the destination
// list for the funnel the candidate entered.
func (s *Service) EnqueueUpsert(ctx context.Context, funnelEntryID *uuid.UUID, email string, listID int64, funnelType enums.FunnelType) (uuid.UUID, error) {
	payload := payloads.ContactSync{
		Email:   email,
		ListIDs: []int64{listID},
		Attributes: map[string]any{
			brevo.AttrFunnelType: string(funnelType),
		},
	}
	id, err := s.repo.Enqueue(ctx, funnelEntryID, enums.OperationUpsertContact, payload)
	if err != nil {
		return uuid.Nil, err
	}
	s.logEnqueued(ctx, id, enums.OperationUpsertContact, email, funnelType)
	return id, nil
}

// EnqueueAfterPurchase records an update_after_purchase job carrying the
// purchase timestamp. The worker merges the purchase attributes at dispatch.
func (s *Service) EnqueueAfterPurchase(ctx context.Context, funnelEntryID *uuid.UUID, email string, funnelType enums.FunnelType, purchasedAt time.Time) (uuid.UUID, error) {
	payload := payloads.ContactSync{
		Email: email,
		Attributes: map[string]any{
			brevo.AttrFunnelType: string(funnelType),
		},
		PurchasedAt: purchasedAt.Format(time.RFC3339),
	}
	id, err := s.repo.Enqueue(ctx, funnelEntryID, enums.OperationUpdateAfterPurchase, payload)
	if err != nil {
		return uuid.Nil, err
	}
	s.logEnqueued(ctx, id, enums.OperationUpdateAfterPurchase, email, funnelType)
	return id, nil
}

func (s *Service) logEnqueued(ctx context.Context, id uuid.UUID, operation enums.OutboxOperationType, email string, funnelType enums.FunnelType) {
	if s.logg == nil {
		return
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"job_id":         id.String(),
		"operation_type": operation,
		"email":          email,
		"funnel_type":    funnelType,
	})
	s.logg.Info(logCtx, "outbox job enqueued")
}
