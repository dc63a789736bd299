package controllers

import (
	"net/http"

	"github.com/teamshotspro/teamshots-backend/api/responses"
	"github.com/teamshotspro/teamshots-backend/api/validators"
	"github.com/teamshotspro/teamshots-backend/internal/generations"
	"github.com/teamshotspro/teamshots-backend/pkg/logger"
)

// CreateGeneration debits credits and queues a headshot job.
func CreateGeneration(svc generations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		personID, err := actorPersonID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body generations.CreateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		generation, err := svc.Create(r.Context(), userID, personID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, generation)
	}
}

func GetGeneration(svc generations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		personID, err := actorPersonID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		generationID, err := pathUUID(r, "generationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		generation, err := svc.Get(r.Context(), personID, generationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, generation)
	}
}

func ListGenerations(svc generations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		personID, err := actorPersonID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), personID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
