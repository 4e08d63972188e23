package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/Nooxeel/zetta-backend/api/routes"
	"github.com/Nooxeel/zetta-backend/internal/chargebacks"
	"github.com/Nooxeel/zetta-backend/internal/feeschedule"
	"github.com/Nooxeel/zetta-backend/internal/jobs"
	"github.com/Nooxeel/zetta-backend/internal/ledger"
	"github.com/Nooxeel/zetta-backend/internal/payouts"
	"github.com/Nooxeel/zetta-backend/pkg/config"
	"github.com/Nooxeel/zetta-backend/pkg/db"
	"github.com/Nooxeel/zetta-backend/pkg/logger"
	"github.com/Nooxeel/zetta-backend/pkg/migrate"
	"github.com/Nooxeel/zetta-backend/pkg/outbox"
	"github.com/Nooxeel/zetta-backend/pkg/pubsub"
	"github.com/Nooxeel/zetta-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	outboxService, err := outbox.NewService(outbox.ServiceParams{
		Repository: outbox.NewRepository(dbClient.DB()),
		Logger:     logg,
		Outbox:     cfg.Outbox,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox service", err)
		os.Exit(1)
	}

	sinkDeps := outbox.SinkDeps{Logger: logg}
	if cfg.Outbox.Sink == "pubsub" {
		pubsubClient, err := pubsub.NewClient(context.Background(), cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer pubsubClient.Close()
		sinkDeps.PubSub = pubsubClient
	}
	publisher, err := outbox.NewPublisher(cfg, sinkDeps)
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox publisher", err)
		os.Exit(1)
	}

	feeScheduleService, err := feeschedule.NewService(
		feeschedule.NewRepository(dbClient.DB()), dbClient, outboxService, logg, cfg.Settlement)
	if err != nil {
		logg.Error(context.Background(), "failed to create fee schedule service", err)
		os.Exit(1)
	}

	ledgerRepo := ledger.NewRepository(dbClient.DB())
	ledgerService, err := ledger.NewService(ledgerRepo, feeScheduleService)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}
	ledgerRecorder, err := ledger.NewRecorder(ledgerRepo, dbClient, outboxService, feeScheduleService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger recorder", err)
		os.Exit(1)
	}

	payoutsService, err := payouts.NewService(
		payouts.NewRepository(dbClient.DB()), dbClient, outboxService, feeScheduleService, logg, cfg.Settlement)
	if err != nil {
		logg.Error(context.Background(), "failed to create payouts service", err)
		os.Exit(1)
	}

	chargebacksService, err := chargebacks.NewService(
		chargebacks.NewRepository(dbClient.DB()), dbClient, outboxService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create chargebacks service", err)
		os.Exit(1)
	}

	jobsService, err := buildJobsRegistry(cfg, logg, payoutsService, outboxService, publisher)
	if err != nil {
		logg.Error(context.Background(), "failed to create jobs registry", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
		"sink": cfg.Outbox.Sink,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:          cfg,
			Logger:          logg,
			DBPinger:        dbClient,
			RedisPinger:     redisClient,
			Outbox:          outboxService,
			OutboxPublisher: publisher,
			Payouts:         payoutsService,
			Chargebacks:     chargebacksService,
			Ledger:          ledgerService,
			LedgerRecorder:  ledgerRecorder,
			FeeSchedules:    feeScheduleService,
			Jobs:            jobsService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// buildJobsRegistry assembles the same registry the worker runs, so the
// admin surface can report status and trigger jobs manually. The api
// process never starts the schedule loop.
func buildJobsRegistry(
	cfg *config.Config,
	logg *logger.Logger,
	payoutsService payouts.Service,
	outboxService *outbox.Service,
	publisher outbox.Publisher,
) (*jobs.Service, error) {
	payoutJob, err := jobs.NewPayoutJob(payoutsService, cfg.Jobs.PayoutInterval)
	if err != nil {
		return nil, err
	}
	drainJob, err := jobs.NewOutboxDrainJob(outboxService, publisher, cfg.Jobs.ProcessBatchSize, cfg.Jobs.OutboxInterval)
	if err != nil {
		return nil, err
	}
	cleanupJob, err := jobs.NewOutboxCleanupJob(outboxService, cfg.Jobs.CleanupInterval)
	if err != nil {
		return nil, err
	}

	return jobs.NewService(jobs.ServiceParams{
		Logger: logg,
		Lock:   jobs.NoopLock{},
		Jobs:   []jobs.Job{payoutJob, drainJob, cleanupJob},
	})
}
