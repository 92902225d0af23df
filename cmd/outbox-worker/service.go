package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/testizer/funnel-sync-backend/pkg/brevo"
	"github.com/testizer/funnel-sync-backend/pkg/db/models"
	"github.com/testizer/funnel-sync-backend/pkg/enums"
	apperrors "github.com/testizer/funnel-sync-backend/pkg/errors"
	"github.com/testizer/funnel-sync-backend/pkg/logger"
	"github.com/testizer/funnel-sync-backend/pkg/metrics"
	"github.com/testizer/funnel-sync-backend/pkg/outbox/payloads"
)

const (
	defaultBatchSize = 100
	defaultPollMs    = 500
	maxBackoff       = 10 * time.Second
	jitterWindow     = 250 * time.Millisecond
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type contactGateway interface {
	UpsertContact(ctx context.Context, contact brevo.Contact) (brevo.UpsertResult, error)
}

type outboxStore interface {
	FetchPending(ctx context.Context, limit int) ([]models.OutboxJob, error)
	MarkSuccess(ctx context.Context, id uuid.UUID) error
	MarkError(ctx context.Context, id uuid.UUID, message string) error
}

type ServiceParams struct {
	Logger    *logger.Logger
	Store     outboxStore
	Gateway   contactGateway
	Metrics   *metrics.OutboxWorkerMetrics
	BatchSize int
	PollMS    int
}

// Service drains the outbox single-file: fetch a batch of pending jobs,
// dispatch each against the Brevo gateway and record the outcome on the row.
// A job failure never stops the batch; only store errors abort a cycle.
type Service struct {
	logg         *logger.Logger
	store        outboxStore
	gateway      contactGateway
	metrics      *metrics.OutboxWorkerMetrics
	batchSize    int
	pollInterval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Store == nil {
		return nil, errors.New("outbox store is required")
	}
	if params.Gateway == nil {
		return nil, errors.New("contact gateway is required")
	}

	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	pollMs := params.PollMS
	if pollMs <= 0 {
		pollMs = defaultPollMs
	}

	return &Service{
		logg:         params.Logger,
		store:        params.Store,
		gateway:      params.Gateway,
		metrics:      params.Metrics,
		batchSize:    batch,
		pollInterval: time.Duration(pollMs) * time.Millisecond,
	}, nil
}

// Run polls until the context is canceled. An empty fetch sleeps one poll
// interval; a store error backs off exponentially before the next attempt.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	interval := s.pollInterval
	backoff := interval

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "outbox worker context canceled")
			return ctx.Err()
		default:
		}

		processed, err := s.RunOnce(ctx)
		if err != nil {
			s.logg.Error(ctx, "outbox worker batch error", err)
			backoff = nextBackoff(backoff, interval, maxBackoff)
			if err := s.sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = interval

		if processed > 0 {
			continue
		}

		if err := s.sleep(ctx, withJitter(interval)); err != nil {
			return err
		}
	}
}

// RunOnce drains one batch and returns how many jobs it touched.
func (s *Service) RunOnce(ctx context.Context) (int, error) {
	jobs, err := s.store.FetchPending(ctx, s.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetching pending outbox jobs: %w", err)
	}
	if len(jobs) == 0 {
		return 0, nil
	}

	var succeeded, failed int
	for _, job := range jobs {
		delivered, err := s.processJob(ctx, job)
		if err != nil {
			return succeeded + failed, err
		}
		if delivered {
			succeeded++
		} else {
			failed++
		}
	}

	batchCtx := s.logg.WithFields(ctx, map[string]any{
		"batch_size": len(jobs),
		"succeeded":  succeeded,
		"failed":     failed,
	})
	s.logg.Info(batchCtx, "outbox batch processed")
	return len(jobs), nil
}

func (s *Service) processJob(ctx context.Context, job models.OutboxJob) (bool, error) {
	jobCtx := s.logg.WithFields(ctx, map[string]any{
		"job_id":         job.ID.String(),
		"operation_type": job.OperationType,
	})
	s.metrics.IncProcessed(string(job.OperationType))

	contact, err := s.buildContact(job)
	if err != nil {
		// Malformed payloads and unknown operations never reach the gateway.
		s.logg.Warn(s.logg.WithField(jobCtx, "error", err.Error()), "outbox job rejected before dispatch")
		s.metrics.IncFailed(string(job.OperationType), failureReason(err))
		if markErr := s.store.MarkError(ctx, job.ID, err.Error()); markErr != nil {
			return false, fmt.Errorf("mark error %s: %w", job.ID, markErr)
		}
		return false, nil
	}

	if _, err := s.gateway.UpsertContact(ctx, contact); err != nil {
		s.logg.Warn(s.logg.WithField(jobCtx, "error", err.Error()), "outbox job delivery failed")
		s.metrics.IncFailed(string(job.OperationType), failureReason(err))
		if markErr := s.store.MarkError(ctx, job.ID, err.Error()); markErr != nil {
			return false, fmt.Errorf("mark error %s: %w", job.ID, markErr)
		}
		return false, nil
	}

	s.metrics.IncSucceeded(string(job.OperationType))
	if err := s.store.MarkSuccess(ctx, job.ID); err != nil {
		return false, fmt.Errorf("mark success %s: %w", job.ID, err)
	}
	s.logg.Info(jobCtx, "outbox job delivered")
	return true, nil
}

func (s *Service) buildContact(job models.OutboxJob) (brevo.Contact, error) {
	var payload payloads.ContactSync
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return brevo.Contact{}, apperrors.Wrap(apperrors.CodeDecode, err, "decoding outbox payload")
	}
	if payload.Email == "" {
		return brevo.Contact{}, apperrors.New(apperrors.CodeDecode, "outbox payload has no email")
	}

	attributes := make(map[string]any, len(payload.Attributes)+2)
	for k, v := range payload.Attributes {
		attributes[k] = v
	}

	switch job.OperationType {
	case enums.OperationUpsertContact:
		// Intake snapshot maps straight onto the contact.
	case enums.OperationUpdateAfterPurchase:
		if payload.PurchasedAt == "" {
			return brevo.Contact{}, apperrors.New(apperrors.CodeDecode, "purchase payload has no purchased_at")
		}
		attributes[brevo.AttrCertificatePurchased] = 1
		attributes[brevo.AttrCertificatePurchasedAt] = payload.PurchasedAt
	default:
		return brevo.Contact{}, apperrors.New(apperrors.CodeDecode,
			fmt.Sprintf("unknown operation type %q", job.OperationType))
	}

	contact := brevo.NewContact(payload.Email, payload.ListIDs, attributes)
	if payload.UpdateEnabled != nil {
		contact.UpdateEnabled = *payload.UpdateEnabled
	}
	return contact, nil
}

func failureReason(err error) string {
	if typed := apperrors.As(err); typed != nil {
		return string(typed.Code())
	}
	return "unclassified"
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	jitter := time.Duration(jitterSource.Int63n(int64(jitterWindow)))
	return d + jitter
}
