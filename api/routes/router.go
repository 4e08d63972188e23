package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Nooxeel/zetta-backend/api/controllers"
	"github.com/Nooxeel/zetta-backend/api/middleware"
	"github.com/Nooxeel/zetta-backend/internal/chargebacks"
	"github.com/Nooxeel/zetta-backend/internal/feeschedule"
	"github.com/Nooxeel/zetta-backend/internal/jobs"
	"github.com/Nooxeel/zetta-backend/internal/ledger"
	"github.com/Nooxeel/zetta-backend/internal/payouts"
	"github.com/Nooxeel/zetta-backend/pkg/config"
	"github.com/Nooxeel/zetta-backend/pkg/db"
	"github.com/Nooxeel/zetta-backend/pkg/logger"
	"github.com/Nooxeel/zetta-backend/pkg/outbox"
	"github.com/Nooxeel/zetta-backend/pkg/redis"
)

// Deps collects everything the administrative router serves.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger

	DBPinger    db.Pinger
	RedisPinger redis.Pinger

	Outbox          *outbox.Service
	OutboxPublisher outbox.Publisher
	Payouts         payouts.Service
	Chargebacks     chargebacks.Service
	Ledger          ledger.Service
	LedgerRecorder  ledger.Recorder
	FeeSchedules    feeschedule.Service
	Jobs            *jobs.Service
}

// NewRouter builds the admin HTTP surface. Everything under
// /api/admin/v1 requires the shared admin key.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DBPinger, deps.RedisPinger))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.AdminKey(cfg.Admin, logg))

		r.Route("/outbox", func(r chi.Router) {
			r.Get("/stats", controllers.OutboxStats(deps.Outbox, logg))
			r.Post("/process", controllers.OutboxProcess(deps.Outbox, deps.OutboxPublisher, logg))
			r.Post("/retry-failed", controllers.OutboxRetryFailed(deps.Outbox, logg))
			r.Post("/cleanup", controllers.OutboxCleanup(deps.Outbox, logg))
			r.Get("/events", controllers.OutboxEvents(deps.Outbox, logg))
		})

		r.Route("/payouts", func(r chi.Router) {
			r.Post("/calculate-all", controllers.PayoutsCalculateAll(deps.Payouts, logg))
			r.Get("/pending-retry", controllers.PayoutsPendingRetry(deps.Payouts, logg))
			r.Post("/{payoutId}/mark-sent", controllers.PayoutMarkSent(deps.Payouts, logg))
			r.Post("/{payoutId}/mark-failed", controllers.PayoutMarkFailed(deps.Payouts, logg))
		})

		r.Route("/chargebacks", func(r chi.Router) {
			r.Post("/", controllers.ChargebackRecord(deps.Chargebacks, logg))
			r.Get("/pending", controllers.ChargebacksPending(deps.Chargebacks, logg))
			r.Get("/stats", controllers.ChargebackStats(deps.Chargebacks, logg))
		})

		r.Post("/transactions", controllers.TransactionRecord(deps.LedgerRecorder, logg))

		r.Route("/creators/{creatorId}", func(r chi.Router) {
			r.Get("/balance", controllers.CreatorBalance(deps.Ledger, logg))
			r.Post("/tier", controllers.CreatorTierChange(deps.FeeSchedules, logg))
			r.Get("/tier-history", controllers.CreatorTierHistory(deps.FeeSchedules, logg))
		})

		r.Route("/fee-schedules", func(r chi.Router) {
			r.Get("/active", controllers.FeeScheduleActive(deps.FeeSchedules, logg))
			r.Post("/", controllers.FeeScheduleCreate(deps.FeeSchedules, logg))
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/status", controllers.JobsStatus(deps.Jobs, logg))
			r.Post("/run/{jobName}", controllers.JobRun(deps.Jobs, logg))
		})
	})

	return r
}
