package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/teamshotspro/teamshots-backend/api/responses"
	"github.com/teamshotspro/teamshots-backend/internal/credits"
	"github.com/teamshotspro/teamshots-backend/pkg/enums"
	pkgerrors "github.com/teamshotspro/teamshots-backend/pkg/errors"
	"github.com/teamshotspro/teamshots-backend/pkg/logger"
)

// creditScope resolves the ?scope= query to a ledger scope and owner id.
func creditScope(r *http.Request) (enums.CreditScope, uuid.UUID, error) {
	scope := enums.CreditScope(r.URL.Query().Get("scope"))
	if scope == "" {
		scope = enums.CreditScopePerson
	}
	switch scope {
	case enums.CreditScopePerson:
		owner, err := actorPersonID(r)
		return scope, owner, err
	case enums.CreditScopeTeam:
		owner, err := actorTeamID(r)
		return scope, owner, err
	default:
		return "", uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "scope must be team or person")
	}
}

func CreditBalance(svc credits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ownerID, err := creditScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balance, err := svc.Balance(r.Context(), scope, ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"scope":   scope,
			"balance": balance,
		})
	}
}

func CreditHistory(svc credits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ownerID, err := creditScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.History(r.Context(), scope, ownerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"items":       page.Items,
			"next_cursor": page.NextCursor,
		})
	}
}
