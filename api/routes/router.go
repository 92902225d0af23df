package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/testizer/funnel-sync-backend/api/controllers"
	"github.com/testizer/funnel-sync-backend/api/middleware"
	"github.com/testizer/funnel-sync-backend/internal/analytics"
	"github.com/testizer/funnel-sync-backend/pkg/config"
	"github.com/testizer/funnel-sync-backend/pkg/logger"
)

// RouterParams carry the wired services. Redis is optional; the API itself
// only reads the ledger.
type RouterParams struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        controllers.Pinger
	Redis     controllers.Pinger
	Analytics *analytics.Service
}

func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(params.Logger),
		middleware.RequestID(params.Logger),
		middleware.Logging(params.Logger),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(params.Config))
		r.Get("/ready", controllers.HealthReady(params.Config, params.Logger, map[string]controllers.Pinger{
			"database": params.DB,
			"redis":    params.Redis,
		}))
	})

	r.Route("/api/v1/reports", func(r chi.Router) {
		r.Get("/conversion", controllers.ConversionReport(params.Analytics, params.Logger))
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
