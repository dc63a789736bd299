package controllers

import (
	"net/http"

	"github.com/teamshotspro/teamshots-backend/api/responses"
	"github.com/teamshotspro/teamshots-backend/api/validators"
	"github.com/teamshotspro/teamshots-backend/internal/styles"
	"github.com/teamshotspro/teamshots-backend/pkg/logger"
)

func CreateStyleContext(svc styles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		personID, err := actorPersonID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body styles.CreateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		style, err := svc.Create(r.Context(), personID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, style)
	}
}

func GetStyleContext(svc styles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		styleID, err := pathUUID(r, "styleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		style, err := svc.Get(r.Context(), styleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, style)
	}
}

// ListStyleContexts returns the team's styles plus the caller's personal ones.
func ListStyleContexts(svc styles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		personID, err := actorPersonID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		personal, err := svc.ListForPerson(r.Context(), personID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var team []styles.StyleContextDTO
		if teamID, err := actorTeamID(r); err == nil {
			team, err = svc.ListForTeam(r.Context(), teamID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		responses.WriteSuccess(w, map[string]any{
			"team":     team,
			"personal": personal,
		})
	}
}

func UpdateStyleContext(svc styles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		personID, err := actorPersonID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		styleID, err := pathUUID(r, "styleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body styles.UpdateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		style, err := svc.Update(r.Context(), personID, styleID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, style)
	}
}

func DeleteStyleContext(svc styles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		personID, err := actorPersonID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		styleID, err := pathUUID(r, "styleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), personID, styleID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

// ActivateStyleContext makes a team style the default for new generations.
func ActivateStyleContext(svc styles.Service, logg *logger.Logger) http.HandlerFunc {
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
		styleID, err := pathUUID(r, "styleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ActivateForTeam(r.Context(), personID, teamID, styleID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

// ResolveStyleContext returns the normalized per-category view.
func ResolveStyleContext(svc styles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		styleID, err := pathUUID(r, "styleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resolved, err := svc.Resolve(r.Context(), styleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resolved)
	}
}
