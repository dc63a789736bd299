package controllers

import (
	"context"
	"net/http"

	"github.com/teamshotspro/teamshots-backend/api/responses"
	pkgerrors "github.com/teamshotspro/teamshots-backend/pkg/errors"
	"github.com/teamshotspro/teamshots-backend/pkg/logger"
)

const envHeader = "X-TeamShots-Env"

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(env string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady verifies the backing stores before reporting ready.
func HealthReady(env string, db, cache pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, env)

		checks := map[string]pinger{"postgres": db, "redis": cache}
		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
