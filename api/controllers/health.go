package controllers

import (
	"context"
	"net/http"

	"github.com/testizer/funnel-sync-backend/api/responses"
	"github.com/testizer/funnel-sync-backend/pkg/config"
	pkgerrors "github.com/testizer/funnel-sync-backend/pkg/errors"
	"github.com/testizer/funnel-sync-backend/pkg/logger"
)

const envHeader = "X-Testizer-Env"

// Pinger is the dependency health surface checked by readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the wired dependencies. Nil pingers are skipped so a
// deployment without redis still reports ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, pingers map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		for name, pinger := range pingers {
			if pinger == nil {
				continue
			}
			if err := pinger.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeTransient, err, name+" is not ready"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
