package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/mhsadiq/cartrace-backend/api/responses"
	"github.com/mhsadiq/cartrace-backend/pkg/bigquery"
	"github.com/mhsadiq/cartrace-backend/pkg/config"
	"github.com/mhsadiq/cartrace-backend/pkg/db"
	pkgerrors "github.com/mhsadiq/cartrace-backend/pkg/errors"
	"github.com/mhsadiq/cartrace-backend/pkg/logger"
	"github.com/mhsadiq/cartrace-backend/pkg/redis"
)

const readinessTimeout = 5 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-CarTrace-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every hard dependency. Nil pingers are treated as
// not-wired and skipped.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger, bigqueryP bigquery.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-CarTrace-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := []struct {
			name string
			ping func(context.Context) error
		}{
			{"db", pingFunc(dbP)},
			{"redis", pingFunc(redisP)},
			{"bigquery", pingFunc(bigqueryP)},
		}

		for _, check := range checks {
			if check.ping == nil {
				continue
			}
			if err := check.ping(ctx); err != nil {
				wrapped := pkgerrors.Wrap(pkgerrors.CodeDependency, err, check.name+" unavailable")
				responses.WriteError(r.Context(), logg, w, wrapped)
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}

func pingFunc(p interface{ Ping(context.Context) error }) func(context.Context) error {
	if p == nil {
		return nil
	}
	return p.Ping
}
