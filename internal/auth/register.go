package auth

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/teamshotspro/teamshots-backend/internal/users"
	dbpkg "github.com/teamshotspro/teamshots-backend/pkg/db"
	"github.com/teamshotspro/teamshots-backend/pkg/db/models"
	"github.com/teamshotspro/teamshots-backend/pkg/enums"
	pkgerrors "github.com/teamshotspro/teamshots-backend/pkg/errors"
	"github.com/teamshotspro/teamshots-backend/pkg/security"
)

// Register creates the user, their person profile, and optionally a team with
// the new person as admin, all in one transaction. A session is issued on
// success so the client lands authenticated.
func (s *service) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		displayName = strings.TrimSpace(input.FirstName + " " + input.LastName)
	}

	var (
		user   *models.User
		person *models.Person
	)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.users.CreateTx(tx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: hash,
			FirstName:    strings.TrimSpace(input.FirstName),
			LastName:     strings.TrimSpace(input.LastName),
		})
		if err != nil {
			if dbpkg.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}
		user = created

		person = &models.Person{
			UserID:      user.ID,
			DisplayName: displayName,
		}
		if err := s.personRepo(tx).Create(ctx, person); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create person")
		}

		if input.TeamName != nil {
			name := strings.TrimSpace(*input.TeamName)
			if name == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "team name cannot be empty")
			}
			team := &models.Team{
				Name:     name,
				AdminID:  person.ID,
				SeatTier: enums.SeatTierNone,
			}
			if err := s.teamRepo(tx).Create(ctx, team); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create team")
			}
			if err := s.personRepo(tx).SetTeamID(ctx, person.ID, &team.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach founder")
			}
			person.TeamID = &team.ID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.issueSession(ctx, user, person)
}
