package funnels

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/testizer/funnel-sync-backend/pkg/enums"
	"github.com/testizer/funnel-sync-backend/pkg/logger"
)

type outboxEnqueuer interface {
	EnqueueUpsert(ctx context.Context, funnelEntryID *uuid.UUID, email string, listID int64, funnelType enums.FunnelType) (uuid.UUID, error)
	EnqueueAfterPurchase(ctx context.Context, funnelEntryID *uuid.UUID, email string, funnelType enums.FunnelType, purchasedAt time.Time) (uuid.UUID, error)
}

// SyncServiceParams configure the intake orchestrator.
type SyncServiceParams struct {
	Logger            *logger.Logger
	Repository        *Repository
	Outbox            outboxEnqueuer
	Candidates        CandidateSource
	LanguageListID    int64
	NonLanguageListID int64
	DryRun            bool
}

// SyncService moves newly-eligible test candidates into the ledger and
// enqueues the matching Brevo outbox jobs. Candidates already in the ledger
// are absorbed without side effects, so re-runs are safe.
type SyncService struct {
	logg              *logger.Logger
	repo              *Repository
	outbox            outboxEnqueuer
	candidates        CandidateSource
	languageListID    int64
	nonLanguageListID int64
	dryRun            bool
}

func NewSyncService(params SyncServiceParams) (*SyncService, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Repository == nil {
		return nil, errors.New("funnel repository is required")
	}
	if params.Outbox == nil {
		return nil, errors.New("outbox service is required")
	}
	if params.Candidates == nil {
		return nil, errors.New("candidate source is required")
	}
	return &SyncService{
		logg:              params.Logger,
		repo:              params.Repository,
		outbox:            params.Outbox,
		candidates:        params.Candidates,
		languageListID:    params.LanguageListID,
		nonLanguageListID: params.NonLanguageListID,
		dryRun:            params.DryRun,
	}, nil
}

// Sync processes up to maxRowsPerType candidates for each configured funnel.
// A destination list id <= 0 disables that funnel entirely.
func (s *SyncService) Sync(ctx context.Context, maxRowsPerType int) error {
	s.logg.Info(ctx, "starting funnel synchronization")

	funnelLists := []struct {
		funnelType enums.FunnelType
		listID     int64
	}{
		{enums.FunnelLanguage, s.languageListID},
		{enums.FunnelNonLanguage, s.nonLanguageListID},
	}

	for _, funnel := range funnelLists {
		if err := s.syncFunnel(ctx, funnel.funnelType, funnel.listID, maxRowsPerType); err != nil {
			return err
		}
	}

	s.logg.Info(ctx, "funnel synchronization finished")
	return nil
}

func (s *SyncService) syncFunnel(ctx context.Context, funnelType enums.FunnelType, listID int64, limit int) error {
	funnelCtx := s.logg.WithFunnelType(ctx, string(funnelType))

	if listID <= 0 {
		s.logg.Info(funnelCtx, "destination list is not configured, skipping funnel")
		return nil
	}

	candidates, err := s.candidates.FetchCandidates(ctx, funnelType, limit)
	if err != nil {
		return fmt.Errorf("fetching %s candidates: %w", funnelType, err)
	}

	var created, skipped int
	for _, candidate := range candidates {
		wasCreated, err := s.processCandidate(funnelCtx, candidate, funnelType, listID)
		if err != nil {
			return err
		}
		if wasCreated {
			created++
		} else {
			skipped++
		}
	}

	summaryCtx := s.logg.WithFields(funnelCtx, map[string]any{
		"fetched": len(candidates),
		"created": created,
		"skipped": skipped,
		"list_id": listID,
	})
	s.logg.Info(summaryCtx, "funnel intake batch complete")
	return nil
}

func (s *SyncService) processCandidate(ctx context.Context, candidate Candidate, funnelType enums.FunnelType, listID int64) (bool, error) {
	candidateCtx := s.logg.WithEmail(ctx, candidate.Email)

	exists, err := s.repo.Exists(ctx, candidate.Email, funnelType, candidate.TestID)
	if err != nil {
		return false, fmt.Errorf("checking ledger for %s: %w", candidate.Email, err)
	}
	if exists {
		return false, nil
	}

	// Dry run ends here: no outbox enqueue and no ledger write.
	if s.dryRun {
		s.logg.Info(candidateCtx, "dry run: would enqueue contact upsert and create funnel entry")
		return false, nil
	}

	if _, err := s.outbox.EnqueueUpsert(ctx, nil, candidate.Email, listID, funnelType); err != nil {
		return false, fmt.Errorf("enqueueing upsert for %s: %w", candidate.Email, err)
	}

	_, created, err := s.repo.CreateIfAbsent(ctx, candidate.Email, funnelType, candidate.UserID, candidate.TestID)
	if err != nil {
		return false, fmt.Errorf("creating funnel entry for %s: %w", candidate.Email, err)
	}
	if created {
		s.logg.Info(candidateCtx, "funnel entry created")
	}
	return created, nil
}
