package controllers

import (
	"net/http"

	"github.com/karinvintage/vintagecloset-backend/api/responses"
	"github.com/karinvintage/vintagecloset-backend/pkg/config"
	"github.com/karinvintage/vintagecloset-backend/pkg/db"
	pkgerrors "github.com/karinvintage/vintagecloset-backend/pkg/errors"
	"github.com/karinvintage/vintagecloset-backend/pkg/logger"
	"github.com/karinvintage/vintagecloset-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-VintageCloset-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("X-VintageCloset-Env", cfg.App.Env)

		checks := map[string]string{}

		if dbP == nil {
			checks["db"] = "not configured"
		} else if err := dbP.Ping(ctx); err != nil {
			checks["db"] = err.Error()
		}

		if redisP == nil {
			checks["redis"] = "not configured"
		} else if err := redisP.Ping(ctx); err != nil {
			checks["redis"] = err.Error()
		}

		if len(checks) > 0 {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "readiness checks failed").WithDetails(checks))
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
