package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testizer/funnel-sync-backend/internal/funnels"
	"github.com/testizer/funnel-sync-backend/pkg/enums"
)

type stubAggregator struct {
	rows []funnels.ConversionRow
	err  error
	from *time.Time
	to   *time.Time
}

func (s *stubAggregator) AggregateConversion(_ context.Context, from, to *time.Time) ([]funnels.ConversionRow, error) {
	s.from, s.to = from, to
	return s.rows, s.err
}

func TestConversionSummaryMapsRows(t *testing.T) {
	repo := &stubAggregator{rows: []funnels.ConversionRow{
		{FunnelType: enums.FunnelLanguage, TotalEntries: 4, TotalPurchased: 1},
		{FunnelType: enums.FunnelNonLanguage, TotalEntries: 0, TotalPurchased: 0},
	}}
	service, err := NewService(repo)
	require.NoError(t, err)

	reports, err := service.ConversionSummary(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	assert.Equal(t, enums.FunnelLanguage, reports[0].FunnelType)
	assert.Equal(t, 0.25, reports[0].ConversionRate)
	assert.Equal(t, 25.0, reports[0].RatePercent())

	assert.Equal(t, 0.0, reports[1].ConversionRate, "empty funnel reports zero, not NaN")
}

func TestConversionReportFiltersSingleFunnel(t *testing.T) {
	repo := &stubAggregator{rows: []funnels.ConversionRow{
		{FunnelType: enums.FunnelLanguage, TotalEntries: 10, TotalPurchased: 5},
	}}
	service, err := NewService(repo)
	require.NoError(t, err)

	report, err := service.ConversionReport(context.Background(), enums.FunnelLanguage, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(10), report.TotalEntries)
	assert.Equal(t, 0.5, report.ConversionRate)
}

func TestConversionReportZeroValuedWhenFunnelAbsent(t *testing.T) {
	service, err := NewService(&stubAggregator{})
	require.NoError(t, err)

	report, err := service.ConversionReport(context.Background(), enums.FunnelNonLanguage, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.FunnelNonLanguage, report.FunnelType)
	assert.Zero(t, report.TotalEntries)
	assert.Equal(t, 0.0, report.ConversionRate)
}

func TestConversionSummaryPropagatesErrors(t *testing.T) {
	service, err := NewService(&stubAggregator{err: errors.New("query failed")})
	require.NoError(t, err)

	_, err = service.ConversionSummary(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestConversionSummaryForwardsPeriod(t *testing.T) {
	repo := &stubAggregator{}
	service, err := NewService(repo)
	require.NoError(t, err)

	from, to := BuildPeriod(30)
	_, err = service.ConversionSummary(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, from, repo.from)
	assert.Equal(t, to, repo.to)
}

func TestBuildPeriod(t *testing.T) {
	from, to := BuildPeriod(0)
	assert.Nil(t, from)
	assert.Nil(t, to)

	from, to = BuildPeriod(7)
	require.NotNil(t, from)
	require.NotNil(t, to)
	assert.Equal(t, 7*24*time.Hour, to.Sub(*from))
}
