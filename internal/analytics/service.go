// Package analytics builds conversion reports over the funnel ledger.
package analytics

import (
	"context"
	"errors"
	"time"

	"github.com/testizer/funnel-sync-backend/internal/funnels"
	"github.com/testizer/funnel-sync-backend/pkg/enums"
)

type conversionAggregator interface {
	AggregateConversion(ctx context.Context, from, to *time.Time) ([]funnels.ConversionRow, error)
}

// Report is the conversion summary for one funnel over an optional period.
type Report struct {
	FunnelType     enums.FunnelType `json:"funnel_type"`
	PeriodStart    *time.Time       `json:"period_start,omitempty"`
	PeriodEnd      *time.Time       `json:"period_end,omitempty"`
	TotalEntries   int64            `json:"total_entries"`
	TotalPurchased int64            `json:"total_purchased"`
	ConversionRate float64          `json:"conversion_rate"`
}

// RatePercent renders the rate on a 0-100 scale for display.
func (r Report) RatePercent() float64 {
	return r.ConversionRate * 100.0
}

type Service struct {
	repo conversionAggregator
}

func NewService(repo conversionAggregator) (*Service, error) {
	if repo == nil {
		return nil, errors.New("conversion repository is required")
	}
	return &Service{repo: repo}, nil
}

// ConversionSummary reports every funnel type with activity in the period.
// An empty period yields an empty slice, not an error.
func (s *Service) ConversionSummary(ctx context.Context, from, to *time.Time) ([]Report, error) {
	rows, err := s.repo.AggregateConversion(ctx, from, to)
	if err != nil {
		return nil, err
	}

	reports := make([]Report, 0, len(rows))
	for _, row := range rows {
		reports = append(reports, Report{
			FunnelType:     row.FunnelType,
			PeriodStart:    from,
			PeriodEnd:      to,
			TotalEntries:   row.TotalEntries,
			TotalPurchased: row.TotalPurchased,
			ConversionRate: row.ConversionRate(),
		})
	}
	return reports, nil
}

// ConversionReport reports a single funnel. A funnel with no entries in the
// period comes back zero-valued rather than as an error.
func (s *Service) ConversionReport(ctx context.Context, funnelType enums.FunnelType, from, to *time.Time) (Report, error) {
	reports, err := s.ConversionSummary(ctx, from, to)
	if err != nil {
		return Report{}, err
	}
	for _, report := range reports {
		if report.FunnelType == funnelType {
			return report, nil
		}
	}
	return Report{FunnelType: funnelType, PeriodStart: from, PeriodEnd: to}, nil
}

// BuildPeriod converts a trailing-days window into report bounds. Zero or
// negative days means all time.
func BuildPeriod(days int) (from, to *time.Time) {
	if days <= 0 {
		return nil, nil
	}
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)
	return &start, &end
}
