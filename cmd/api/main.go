package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/teamshotspro/teamshots-backend/api/routes"
	"github.com/teamshotspro/teamshots-backend/internal/auth"
	"github.com/teamshotspro/teamshots-backend/internal/billing"
	"github.com/teamshotspro/teamshots-backend/internal/credits"
	"github.com/teamshotspro/teamshots-backend/internal/feedback"
	"github.com/teamshotspro/teamshots-backend/internal/generations"
	"github.com/teamshotspro/teamshots-backend/internal/persons"
	"github.com/teamshotspro/teamshots-backend/internal/seats"
	"github.com/teamshotspro/teamshots-backend/internal/selfies"
	"github.com/teamshotspro/teamshots-backend/internal/settings"
	"github.com/teamshotspro/teamshots-backend/internal/styles"
	"github.com/teamshotspro/teamshots-backend/internal/teams"
	stripewebhook "github.com/teamshotspro/teamshots-backend/internal/webhooks/stripe"
	"github.com/teamshotspro/teamshots-backend/pkg/auth/session"
	"github.com/teamshotspro/teamshots-backend/pkg/config"
	"github.com/teamshotspro/teamshots-backend/pkg/db"
	"github.com/teamshotspro/teamshots-backend/pkg/logger"
	"github.com/teamshotspro/teamshots-backend/pkg/migrate"
	"github.com/teamshotspro/teamshots-backend/pkg/outbox"
	"github.com/teamshotspro/teamshots-backend/pkg/redis"
	"github.com/teamshotspro/teamshots-backend/pkg/storage/gcs"
	"github.com/teamshotspro/teamshots-backend/pkg/stripe"
)

// Stripe keeps retrying unacknowledged events for up to three days.
const stripeWebhookDedupeTTL = 72 * time.Hour

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

	cfg.Service.Kind = "api"

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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap gcs", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing gcs client", err)
		}
	}()

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	authService, err := auth.NewService(auth.GormParams(
		dbClient.DB(),
		dbClient,
		sessionManager,
		cfg.JWT,
		cfg.Password,
	))
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	teamService, err := teams.NewService(teams.GormParams(
		dbClient.DB(),
		dbClient,
		outboxService,
		cfg.FeatureFlags.ReturnInviteToken,
	))
	if err != nil {
		logg.Error(context.Background(), "failed to create teams service", err)
		os.Exit(1)
	}

	creditService, err := credits.NewService(credits.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create credits service", err)
		os.Exit(1)
	}

	seatService, err := seats.NewService(seats.GormParams(
		dbClient.DB(),
		dbClient,
		creditService,
		outboxService,
	))
	if err != nil {
		logg.Error(context.Background(), "failed to create seats service", err)
		os.Exit(1)
	}

	styleService, err := styles.NewService(styles.GormParams(dbClient.DB(), dbClient))
	if err != nil {
		logg.Error(context.Background(), "failed to create styles service", err)
		os.Exit(1)
	}

	selfieService, err := selfies.NewService(selfies.ServiceParams{
		Repo:   selfies.NewRepository(dbClient.DB()),
		Store:  gcsClient,
		GCS:    cfg.GCS,
		Limits: cfg.Selfie,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create selfies service", err)
		os.Exit(1)
	}

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

	billingService, err := billing.NewService(billing.ServiceParams{
		Stripe:   billing.NewStripeClient(stripeClient),
		TeamRepo: teams.NewRepository(dbClient.DB()),
		Config:   cfg.Stripe,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create billing service", err)
		os.Exit(1)
	}

	settingService, err := settings.NewService(settings.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create settings service", err)
		os.Exit(1)
	}

	feedbackService, err := feedback.NewService(feedback.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create feedback service", err)
		os.Exit(1)
	}

	stripeWebhookService, err := stripewebhook.NewService(stripewebhook.GormParams(
		dbClient.DB(),
		dbClient,
		creditService,
		outboxService,
		logg,
	))
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook service", err)
		os.Exit(1)
	}

	stripeWebhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, stripeWebhookDedupeTTL, "stripe")
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:      cfg,
			Logger:      logg,
			DB:          dbClient,
			Redis:       redisClient,
			Sessions:    sessionManager,
			PersonRepo:  persons.NewRepository(dbClient.DB()),
			Auth:        authService,
			Teams:       teamService,
			Seats:       seatService,
			Credits:     creditService,
			Styles:      styleService,
			Selfies:     selfieService,
			Generations: generationService,
			Billing:     billingService,
			Settings:    settingService,
			Feedback:    feedbackService,

			StripeClient:       stripeClient,
			StripeWebhook:      stripeWebhookService,
			StripeWebhookGuard: stripeWebhookGuard,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
