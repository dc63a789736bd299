package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/teamshotspro/teamshots-backend/internal/credits"
	"github.com/teamshotspro/teamshots-backend/internal/cron"
	"github.com/teamshotspro/teamshots-backend/internal/generations"
	"github.com/teamshotspro/teamshots-backend/internal/invites"
	"github.com/teamshotspro/teamshots-backend/internal/styles"
	"github.com/teamshotspro/teamshots-backend/pkg/config"
	"github.com/teamshotspro/teamshots-backend/pkg/db"
	"github.com/teamshotspro/teamshots-backend/pkg/logger"
	"github.com/teamshotspro/teamshots-backend/pkg/metrics"
	"github.com/teamshotspro/teamshots-backend/pkg/migrate"
	"github.com/teamshotspro/teamshots-backend/pkg/outbox"
	"github.com/teamshotspro/teamshots-backend/pkg/redis"
)

const lockKeyFormat = "ts:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	creditService, err := credits.NewService(credits.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create credits service", err)
		os.Exit(1)
	}

	styleService, err := styles.NewService(styles.GormParams(dbClient.DB(), dbClient))
	if err != nil {
		logg.Error(context.Background(), "failed to create styles service", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	generationRepo := generations.NewRepository(dbClient.DB())
	generationService, err := generations.NewService(generations.GormParams(
		dbClient.DB(),
		dbClient,
		styleService,
		creditService,
		outboxService,
		cfg.Selfie,
	))
	if err != nil {
		logg.Error(context.Background(), "failed to create generations service", err)
		os.Exit(1)
	}

	inviteSweep, err := cron.NewInviteSweepJob(cron.InviteSweepJobParams{
		Logger:   logg,
		Invites:  invites.NewRepository(dbClient.DB()),
		Interval: cfg.Cron.InviteSweepInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create invite sweep job", err)
		os.Exit(1)
	}

	stuckSweep, err := cron.NewStuckGenerationJob(cron.StuckGenerationJobParams{
		Logger:      logg,
		Reader:      generationRepo,
		Generations: generationService,
		MaxAge:      cfg.Cron.StuckGenerationAge,
		Interval:    cfg.Cron.GenerationSweepInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stuck generation job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(inviteSweep, stuckSweep),
		Lock:     lock,
		Metrics:  metricsCollector,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
