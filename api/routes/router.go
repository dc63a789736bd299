package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teamshotspro/teamshots-backend/api/controllers"
	webhookcontrollers "github.com/teamshotspro/teamshots-backend/api/controllers/webhooks"
	"github.com/teamshotspro/teamshots-backend/api/middleware"
	"github.com/teamshotspro/teamshots-backend/internal/auth"
	"github.com/teamshotspro/teamshots-backend/internal/billing"
	"github.com/teamshotspro/teamshots-backend/internal/credits"
	"github.com/teamshotspro/teamshots-backend/internal/feedback"
	"github.com/teamshotspro/teamshots-backend/internal/generations"
	"github.com/teamshotspro/teamshots-backend/internal/seats"
	"github.com/teamshotspro/teamshots-backend/internal/selfies"
	"github.com/teamshotspro/teamshots-backend/internal/settings"
	"github.com/teamshotspro/teamshots-backend/internal/styles"
	"github.com/teamshotspro/teamshots-backend/internal/teams"
	stripewebhook "github.com/teamshotspro/teamshots-backend/internal/webhooks/stripe"
	"github.com/teamshotspro/teamshots-backend/pkg/auth/session"
	"github.com/teamshotspro/teamshots-backend/pkg/config"
	"github.com/teamshotspro/teamshots-backend/pkg/db"
	"github.com/teamshotspro/teamshots-backend/pkg/db/models"
	"github.com/teamshotspro/teamshots-backend/pkg/logger"
	"github.com/teamshotspro/teamshots-backend/pkg/redis"
	"github.com/teamshotspro/teamshots-backend/pkg/stripe"
)

// PersonReader is the slice of the persons repository the router needs.
type PersonReader interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Person, error)
}

// RouterParams bundles everything the HTTP surface needs. The API binary wires
// live services; router tests swap in stubs.
type RouterParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       *redis.Client
	Sessions    session.AccessSessionChecker
	PersonRepo  PersonReader
	Auth        auth.Service
	Teams       teams.Service
	Seats       seats.Service
	Credits     credits.Service
	Styles      styles.Service
	Selfies     selfies.Service
	Generations generations.Service
	Billing     billing.Service
	Settings    settings.Service
	Feedback    feedback.Service

	StripeClient       *stripe.Client
	StripeWebhook      *stripewebhook.Service
	StripeWebhookGuard *stripewebhook.IdempotencyGuard
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, p.DB, p.Redis, logg))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(p.StripeWebhook, p.StripeClient, p.StripeWebhookGuard, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.AuthLogin(p.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, p.Redis, logg)).Post("/register", controllers.AuthRegister(p.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(p.Auth, cfg.JWT, logg))
	})

	r.Get("/api/v1/billing/pricing", controllers.Pricing(p.Billing, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
		r.Use(middleware.PersonContext(p.PersonRepo, logg))
		r.Use(middleware.Idempotency(p.Redis, logg))

		r.Route("/teams", func(r chi.Router) {
			r.Post("/invites/accept", controllers.AcceptInvite(p.Teams, logg))

			r.Route("/me", func(r chi.Router) {
				r.Use(middleware.TeamContext(logg))
				r.Get("/", controllers.GetMyTeam(p.Teams, logg))
				r.Put("/", controllers.UpdateMyTeam(p.Teams, logg))
				r.Get("/seats", controllers.SeatCapacity(p.Seats, logg))
				r.Post("/invites", controllers.InviteTeamMember(p.Teams, logg))
				r.Route("/members", func(r chi.Router) {
					r.Get("/", controllers.ListTeamMembers(p.Teams, logg))
					r.Delete("/{personID}", controllers.RemoveTeamMember(p.Teams, logg))
					r.Post("/{personID}/seat", controllers.AssignSeat(p.Seats, logg))
					r.Post("/{personID}/reactivate", controllers.ReactivateTeamMember(p.Teams, logg))
					r.Post("/{personID}/promote", controllers.PromoteTeamAdmin(p.Teams, logg))
				})
			})
		})

		r.Route("/credits", func(r chi.Router) {
			r.Get("/balance", controllers.CreditBalance(p.Credits, logg))
			r.Get("/history", controllers.CreditHistory(p.Credits, logg))
		})

		r.Route("/styles", func(r chi.Router) {
			r.Get("/", controllers.ListStyleContexts(p.Styles, logg))
			r.Post("/", controllers.CreateStyleContext(p.Styles, logg))
			r.Get("/{styleID}", controllers.GetStyleContext(p.Styles, logg))
			r.Put("/{styleID}", controllers.UpdateStyleContext(p.Styles, logg))
			r.Delete("/{styleID}", controllers.DeleteStyleContext(p.Styles, logg))
			r.Get("/{styleID}/resolve", controllers.ResolveStyleContext(p.Styles, logg))
			r.With(middleware.TeamContext(logg)).Post("/{styleID}/activate", controllers.ActivateStyleContext(p.Styles, logg))
		})

		r.Route("/selfies", func(r chi.Router) {
			r.Get("/", controllers.ListSelfies(p.Selfies, logg))
			r.Post("/presign", controllers.PresignSelfieUpload(p.Selfies, logg))
			r.Post("/{selfieID}/confirm", controllers.ConfirmSelfieUpload(p.Selfies, logg))
			r.Delete("/{selfieID}", controllers.DeleteSelfie(p.Selfies, logg))
		})

		r.Route("/generations", func(r chi.Router) {
			r.Get("/", controllers.ListGenerations(p.Generations, logg))
			r.Post("/", controllers.CreateGeneration(p.Generations, logg))
			r.Get("/{generationID}", controllers.GetGeneration(p.Generations, logg))
		})

		r.Route("/billing", func(r chi.Router) {
			r.With(middleware.TeamContext(logg)).Post("/checkout/tier", controllers.CreateTierCheckout(p.Billing, logg))
			r.Post("/checkout/pack", controllers.CreatePackCheckout(p.Billing, logg))
		})

		r.Route("/feedback", func(r chi.Router) {
			r.Get("/", controllers.ListFeedback(p.Feedback, logg))
			r.Post("/", controllers.SubmitFeedback(p.Feedback, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
		r.Use(middleware.RequireSystemAdmin(logg))
		r.Route("/settings", func(r chi.Router) {
			r.Get("/", controllers.ListSettings(p.Settings, logg))
			r.Get("/{key}", controllers.GetSetting(p.Settings, logg))
			r.Put("/{key}", controllers.SetSetting(p.Settings, logg))
			r.Delete("/{key}", controllers.DeleteSetting(p.Settings, logg))
		})
	})

	return r
}
