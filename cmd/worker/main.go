package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/teamshotspro/teamshots-backend/internal/credits"
	"github.com/teamshotspro/teamshots-backend/internal/generations"
	"github.com/teamshotspro/teamshots-backend/internal/generations/consumer"
	"github.com/teamshotspro/teamshots-backend/internal/styles"
	"github.com/teamshotspro/teamshots-backend/pkg/config"
	"github.com/teamshotspro/teamshots-backend/pkg/db"
	"github.com/teamshotspro/teamshots-backend/pkg/instance"
	"github.com/teamshotspro/teamshots-backend/pkg/logger"
	"github.com/teamshotspro/teamshots-backend/pkg/migrate"
	"github.com/teamshotspro/teamshots-backend/pkg/outbox"
	"github.com/teamshotspro/teamshots-backend/pkg/pubsub"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "worker"

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	err = migrate.MaybeRunDev(ctx, cfg, logg, dbClient)
	requireResource(ctx, logg, "migrations", err)

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer pubsubClient.Close()

	creditService, err := credits.NewService(credits.NewRepository(dbClient.DB()))
	requireResource(ctx, logg, "credits service", err)

	styleService, err := styles.NewService(styles.GormParams(dbClient.DB(), dbClient))
	requireResource(ctx, logg, "styles service", err)

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	generationService, err := generations.NewService(generations.GormParams(
		dbClient.DB(),
		dbClient,
		styleService,
		creditService,
		outboxService,
		cfg.Selfie,
	))
	requireResource(ctx, logg, "generations service", err)

	statusConsumer, err := consumer.NewConsumer(
		generationService,
		pubsubClient.GenerationStatusSubscription(),
		logg,
	)
	requireResource(ctx, logg, "generation status consumer", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"serviceKind": cfg.Service.Kind,
		"env":         cfg.App.Env,
		"instance":    instance.GetID(),
	})
	logg.Info(runCtx, "generation status worker ready")

	if err := statusConsumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "generation status worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(runCtx, "worker shutting down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
