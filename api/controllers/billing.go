package controllers

import (
	"net/http"

	"github.com/teamshotspro/teamshots-backend/api/responses"
	"github.com/teamshotspro/teamshots-backend/api/validators"
	"github.com/teamshotspro/teamshots-backend/internal/billing"
	"github.com/teamshotspro/teamshots-backend/pkg/enums"
	"github.com/teamshotspro/teamshots-backend/pkg/logger"
)

type tierCheckoutBody struct {
	Tier string `json:"tier" validate:"required,oneof=starter growth scale"`
}

type packCheckoutBody struct {
	PackID string `json:"pack_id" validate:"required"`
}

// Pricing is public; no auth context is read.
func Pricing(svc billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.Pricing(r.Context()))
	}
}

func CreateTierCheckout(svc billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		personID, err := actorPersonID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		teamID, err := actorTeamID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body tierCheckoutBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		checkout, err := svc.CreateTierCheckout(r.Context(), personID, teamID, enums.SeatTier(body.Tier))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, checkout)
	}
}

func CreatePackCheckout(svc billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		personID, err := actorPersonID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body packCheckoutBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		checkout, err := svc.CreatePackCheckout(r.Context(), personID, body.PackID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, checkout)
	}
}
