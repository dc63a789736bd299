package controllers

import (
	"net/http"

	"github.com/teamshotspro/teamshots-backend/api/responses"
	"github.com/teamshotspro/teamshots-backend/api/validators"
	"github.com/teamshotspro/teamshots-backend/internal/selfies"
	"github.com/teamshotspro/teamshots-backend/pkg/logger"
)

type confirmSelfieBody struct {
	SizeBytes int64 `json:"size_bytes" validate:"required,gt=0"`
}

// PresignSelfieUpload reserves a selfie slot and returns a signed PUT URL.
func PresignSelfieUpload(svc selfies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		personID, err := actorPersonID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body selfies.PresignInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.PresignUpload(r.Context(), personID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func ConfirmSelfieUpload(svc selfies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		personID, err := actorPersonID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		selfieID, err := pathUUID(r, "selfieID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body confirmSelfieBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		selfie, err := svc.ConfirmUpload(r.Context(), personID, selfieID, body.SizeBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, selfie)
	}
}

func ListSelfies(svc selfies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		personID, err := actorPersonID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.List(r.Context(), personID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"selfies": items})
	}
}

func DeleteSelfie(svc selfies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		personID, err := actorPersonID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		selfieID, err := pathUUID(r, "selfieID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), personID, selfieID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}
