package auth

import (
	"github.com/google/uuid"

	"github.com/teamshotspro/teamshots-backend/internal/users"
)

// RegisterInput creates a user plus their person profile, optionally founding
// a team with the new person as admin.
type RegisterInput struct {
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required,min=10,max=128"`
	FirstName   string  `json:"first_name" validate:"required,min=1,max=80"`
	LastName    string  `json:"last_name" validate:"required,min=1,max=80"`
	DisplayName string  `json:"display_name" validate:"omitempty,min=1,max=120"`
	TeamName    *string `json:"team_name" validate:"omitempty,min=1,max=120"`
}

// LoginInput carries credentials for password login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshInput rotates a session.
type RefreshInput struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse is returned by register, login, and refresh.
type AuthResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.UserDTO `json:"user"`
	PersonID     uuid.UUID      `json:"person_id"`
	TeamID       *uuid.UUID     `json:"team_id,omitempty"`
}
