package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Nooxeel/zetta-backend/api/responses"
	"github.com/Nooxeel/zetta-backend/internal/jobs"
	pkgerrors "github.com/Nooxeel/zetta-backend/pkg/errors"
	"github.com/Nooxeel/zetta-backend/pkg/logger"
)

// JobsStatus reports per-job run history for the scheduler.
func JobsStatus(svc *jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{"jobs": svc.Status()})
	}
}

// JobRun triggers one job by name outside its schedule.
func JobRun(svc *jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimSpace(chi.URLParam(r, "jobName"))
		if name == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "job name required"))
			return
		}

		if err := svc.RunManually(r.Context(), name); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"job": name, "status": "ok"})
	}
}
