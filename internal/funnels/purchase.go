package funnels

import (
	"context"
	"errors"
	"fmt"

	"github.com/testizer/funnel-sync-backend/pkg/db/models"
	apperrors "github.com/testizer/funnel-sync-backend/pkg/errors"
	"github.com/testizer/funnel-sync-backend/pkg/logger"
)

// PurchaseServiceParams configure the purchase orchestrator.
type PurchaseServiceParams struct {
	Logger     *logger.Logger
	Repository *Repository
	Outbox     outboxEnqueuer
	Purchases  PurchaseSource
	DryRun     bool
}

// PurchaseService walks unpurchased ledger entries, checks the external
// payment source for a completed certificate purchase and, when found, marks
// the ledger and enqueues the after-purchase Brevo update.
type PurchaseService struct {
	logg      *logger.Logger
	repo      *Repository
	outbox    outboxEnqueuer
	purchases PurchaseSource
	dryRun    bool
}

func NewPurchaseService(params PurchaseServiceParams) (*PurchaseService, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Repository == nil {
		return nil, errors.New("funnel repository is required")
	}
	if params.Outbox == nil {
		return nil, errors.New("outbox service is required")
	}
	if params.Purchases == nil {
		return nil, errors.New("purchase source is required")
	}
	return &PurchaseService{
		logg:      params.Logger,
		repo:      params.Repository,
		outbox:    params.Outbox,
		purchases: params.Purchases,
		dryRun:    params.DryRun,
	}, nil
}

// Sync checks up to maxRows unpurchased entries against the payment source.
func (s *PurchaseService) Sync(ctx context.Context, maxRows int) error {
	s.logg.Info(ctx, "starting purchase synchronization")

	entries, err := s.repo.FetchUnpurchased(ctx, maxRows)
	if err != nil {
		return fmt.Errorf("fetching unpurchased entries: %w", err)
	}

	var marked, unmatched int
	for _, entry := range entries {
		didMark, err := s.processEntry(ctx, entry)
		if err != nil {
			return err
		}
		if didMark {
			marked++
		} else {
			unmatched++
		}
	}

	summaryCtx := s.logg.WithFields(ctx, map[string]any{
		"checked":   len(entries),
		"marked":    marked,
		"unmatched": unmatched,
	})
	s.logg.Info(summaryCtx, "purchase sync batch complete")
	return nil
}

func (s *PurchaseService) processEntry(ctx context.Context, entry models.FunnelEntry) (bool, error) {
	entryCtx := s.logg.WithEmail(s.logg.WithFunnelType(ctx, string(entry.FunnelType)), entry.Email)

	purchase, err := s.purchases.FetchPurchase(ctx, entry.Email, entry.FunnelType)
	if err != nil {
		return false, fmt.Errorf("looking up purchase for %s: %w", entry.Email, err)
	}
	if purchase == nil {
		return false, nil
	}
	if purchase.PurchasedAt.IsZero() {
		return false, apperrors.New(apperrors.CodeDataIntegrity,
			fmt.Sprintf("purchase record for %s has no completion timestamp", entry.Email))
	}

	if s.dryRun {
		s.logg.Info(entryCtx, "dry run: would mark entry purchased and enqueue contact update")
		return false, nil
	}

	updated, err := s.repo.MarkPurchasedIfUnmarked(ctx, entry.Email, entry.FunnelType, entry.TestID, purchase.PurchasedAt)
	if err != nil {
		return false, fmt.Errorf("marking purchase for %s: %w", entry.Email, err)
	}
	if updated == 0 {
		// Marked by a previous run between fetch and update.
		return false, nil
	}

	entryID := entry.ID
	if _, err := s.outbox.EnqueueAfterPurchase(ctx, &entryID, entry.Email, entry.FunnelType, purchase.PurchasedAt); err != nil {
		return false, fmt.Errorf("enqueueing purchase update for %s: %w", entry.Email, err)
	}

	s.logg.Info(entryCtx, "certificate purchase recorded")
	return true, nil
}
