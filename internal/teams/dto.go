package teams

import (
	"time"

	"github.com/google/uuid"

	"github.com/teamshotspro/teamshots-backend/pkg/db/models"
	"github.com/teamshotspro/teamshots-backend/pkg/enums"
)

// TeamDTO is the transport shape for a team.
type TeamDTO struct {
	ID                   uuid.UUID      `json:"id"`
	Name                 string         `json:"name"`
	CompanyID            *uuid.UUID     `json:"company_id,omitempty"`
	AdminID              uuid.UUID      `json:"admin_id"`
	SeatTier             enums.SeatTier `json:"seat_tier"`
	ActiveStyleContextID *uuid.UUID     `json:"active_style_context_id,omitempty"`
	SubscriptionActive   bool           `json:"subscription_active"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// MemberDTO describes a person on the team, including their seat state.
type MemberDTO struct {
	PersonID    uuid.UUID        `json:"person_id"`
	UserID      uuid.UUID        `json:"user_id"`
	Email       string           `json:"email"`
	FirstName   string           `json:"first_name"`
	LastName    string           `json:"last_name"`
	DisplayName string           `json:"display_name"`
	Role        enums.MemberRole `json:"role"`
	SeatActive  bool             `json:"seat_active"`
	JoinedAt    time.Time        `json:"joined_at"`
}

// InviteDTO describes an invite row. Token is only populated when the
// deployment is configured to return it (dev environments).
type InviteDTO struct {
	ID        uuid.UUID  `json:"id"`
	TeamID    uuid.UUID  `json:"team_id"`
	Email     string     `json:"email"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// UpdateTeamInput captures the mutable team fields.
type UpdateTeamInput struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=120"`
}

// InviteMemberInput is the payload for inviting a member.
type InviteMemberInput struct {
	Email string `json:"email" validate:"required,email"`
}

// AcceptInviteInput carries the invite token.
type AcceptInviteInput struct {
	Token string `json:"token" validate:"required"`
}

func FromModel(t *models.Team) *TeamDTO {
	if t == nil {
		return nil
	}
	return &TeamDTO{
		ID:                   t.ID,
		Name:                 t.Name,
		CompanyID:            t.CompanyID,
		AdminID:              t.AdminID,
		SeatTier:             t.SeatTier,
		ActiveStyleContextID: t.ActiveStyleContextID,
		SubscriptionActive:   t.SubscriptionActive,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
	}
}

func inviteFromModel(i *models.TeamInvite, includeToken bool) *InviteDTO {
	if i == nil {
		return nil
	}
	dto := &InviteDTO{
		ID:        i.ID,
		TeamID:    i.TeamID,
		Email:     i.Email,
		ExpiresAt: i.ExpiresAt,
		UsedAt:    i.UsedAt,
		CreatedAt: i.CreatedAt,
	}
	if includeToken {
		dto.Token = i.Token
	}
	return dto
}
