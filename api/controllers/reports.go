package controllers

import (
	"net/http"
	"strings"

	"github.com/testizer/funnel-sync-backend/api/responses"
	"github.com/testizer/funnel-sync-backend/api/validators"
	"github.com/testizer/funnel-sync-backend/internal/analytics"
	"github.com/testizer/funnel-sync-backend/pkg/enums"
	pkgerrors "github.com/testizer/funnel-sync-backend/pkg/errors"
	"github.com/testizer/funnel-sync-backend/pkg/logger"
)

const (
	defaultReportDays = 30
	maxReportDays     = 3650
)

// ConversionReport serves GET /api/v1/reports/conversion.
//
// Query parameters:
//
//	funnel - optional funnel type; omitted means every funnel
//	days   - trailing window in days, 0 for all time (default 30)
func ConversionReport(service *analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days, err := validators.ParseQueryInt(r, "days", defaultReportDays, 0, maxReportDays)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		from, to := analytics.BuildPeriod(days)

		rawFunnel := strings.TrimSpace(r.URL.Query().Get("funnel"))
		if rawFunnel == "" {
			reports, err := service.ConversionSummary(r.Context(), from, to)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, reports)
			return
		}

		funnelType, err := enums.ParseFunnelType(rawFunnel)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, err.Error()).WithDetails(map[string]any{"field": "funnel"}))
			return
		}

		report, err := service.ConversionReport(r.Context(), funnelType, from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
