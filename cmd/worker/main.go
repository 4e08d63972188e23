package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Nooxeel/zetta-backend/internal/feeschedule"
	"github.com/Nooxeel/zetta-backend/internal/jobs"
	"github.com/Nooxeel/zetta-backend/internal/payouts"
	"github.com/Nooxeel/zetta-backend/pkg/config"
	"github.com/Nooxeel/zetta-backend/pkg/db"
	"github.com/Nooxeel/zetta-backend/pkg/logger"
	"github.com/Nooxeel/zetta-backend/pkg/metrics"
	"github.com/Nooxeel/zetta-backend/pkg/migrate"
	"github.com/Nooxeel/zetta-backend/pkg/outbox"
	"github.com/Nooxeel/zetta-backend/pkg/pubsub"
	"github.com/Nooxeel/zetta-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "worker"

	logg = logger.New(logger.Options{
		ServiceName: "worker",
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
		Metrics:    metrics.NewOutboxMetrics(prometheus.DefaultRegisterer),
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

	payoutsService, err := payouts.NewService(
		payouts.NewRepository(dbClient.DB()), dbClient, outboxService, feeScheduleService, logg, cfg.Settlement)
	if err != nil {
		logg.Error(context.Background(), "failed to create payouts service", err)
		os.Exit(1)
	}

	payoutJob, err := jobs.NewPayoutJob(payoutsService, cfg.Jobs.PayoutInterval)
	if err != nil {
		logg.Error(context.Background(), "failed to create payout job", err)
		os.Exit(1)
	}
	drainJob, err := jobs.NewOutboxDrainJob(outboxService, publisher, cfg.Jobs.ProcessBatchSize, cfg.Jobs.OutboxInterval)
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox drain job", err)
		os.Exit(1)
	}
	cleanupJob, err := jobs.NewOutboxCleanupJob(outboxService, cfg.Jobs.CleanupInterval)
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox cleanup job", err)
		os.Exit(1)
	}

	lock, err := jobs.NewRedisLock(redisClient, cfg.Jobs.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create job lock", err)
		os.Exit(1)
	}

	jobsService, err := jobs.NewService(jobs.ServiceParams{
		Logger:  logg,
		Lock:    lock,
		Metrics: metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Jobs:    []jobs.Job{payoutJob, drainJob, cleanupJob},
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create jobs service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"sink": cfg.Outbox.Sink,
	})
	logg.Info(ctx, "starting settlement worker")

	if err := jobsService.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "worker shutting down gracefully")
}
