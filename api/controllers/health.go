package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/tiny-inventory/api/responses"
	"github.com/angelmondragon/tiny-inventory/pkg/config"
	"github.com/angelmondragon/tiny-inventory/pkg/db"
	pkgerrors "github.com/angelmondragon/tiny-inventory/pkg/errors"
	"github.com/angelmondragon/tiny-inventory/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// HealthAlive only proves the process is serving.
func HealthAlive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg != nil {
			w.Header().Set("X-Inventory-Env", cfg.App.Env)
		}
		responses.WriteSuccess(w, "Server is running", nil)
	}
}

// HealthReady pings every named dependency. Nil pingers are skipped.
func HealthReady(deps map[string]db.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		status := map[string]string{}
		var failed error
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				status[name] = "down"
				failed = pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable")
				continue
			}
			status[name] = "up"
		}
		if failed != nil {
			responses.WriteError(ctx, logg, w, failed)
			return
		}
		responses.WriteSuccess(w, "Server is ready", status)
	}
}
