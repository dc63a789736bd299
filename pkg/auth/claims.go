package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/teamshotspro/teamshots-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID       uuid.UUID
	ActiveTeamID *uuid.UUID
	Role         enums.MemberRole
	SystemRole   *string
	JTI          string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID       uuid.UUID        `json:"user_id"`
	ActiveTeamID *uuid.UUID       `json:"active_team_id,omitempty"`
	Role         enums.MemberRole `json:"role"`
	SystemRole   *string          `json:"system_role,omitempty"`
	jwt.RegisteredClaims
}

// IsSystemAdmin reports whether the claims carry platform-operator privileges.
func (c *AccessTokenClaims) IsSystemAdmin() bool {
	return c.SystemRole != nil && *c.SystemRole == "system_admin"
}
