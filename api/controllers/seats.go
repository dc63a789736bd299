package controllers

import (
	"net/http"

	"github.com/teamshotspro/teamshots-backend/api/responses"
	"github.com/teamshotspro/teamshots-backend/internal/seats"
	"github.com/teamshotspro/teamshots-backend/pkg/logger"
)

// AssignSeat consumes a seat for a member and transfers their allotment.
func AssignSeat(svc seats.Service, logg *logger.Logger) http.HandlerFunc {
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
		teamID, err := actorTeamID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		targetID, err := pathUUID(r, "personID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AssignSeat(r.Context(), userID, personID, teamID, targetID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func SeatCapacity(svc seats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teamID, err := actorTeamID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		capacity, err := svc.Capacity(r.Context(), teamID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, capacity)
	}
}
