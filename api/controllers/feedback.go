package controllers

import (
	"net/http"

	"github.com/teamshotspro/teamshots-backend/api/responses"
	"github.com/teamshotspro/teamshots-backend/api/validators"
	"github.com/teamshotspro/teamshots-backend/internal/feedback"
	"github.com/teamshotspro/teamshots-backend/pkg/logger"
)

type submitFeedbackBody struct {
	Category string  `json:"category" validate:"required"`
	Message  string  `json:"message" validate:"required"`
	Page     *string `json:"page,omitempty"`
}

func SubmitFeedback(svc feedback.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		personID, err := actorPersonID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body submitFeedbackBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.Submit(r.Context(), feedback.SubmitInput{
			PersonID: personID,
			Category: body.Category,
			Message:  body.Message,
			Page:     body.Page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, row)
	}
}

func ListFeedback(svc feedback.Service, logg *logger.Logger) http.HandlerFunc {
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

		page, err := svc.ListOwn(r.Context(), personID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
