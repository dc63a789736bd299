package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/teamshotspro/teamshots-backend/internal/users"
	pkgauth "github.com/teamshotspro/teamshots-backend/pkg/auth"
	"github.com/teamshotspro/teamshots-backend/pkg/auth/session"
	"github.com/teamshotspro/teamshots-backend/pkg/config"
	"github.com/teamshotspro/teamshots-backend/pkg/db/models"
	"github.com/teamshotspro/teamshots-backend/pkg/enums"
	pkgerrors "github.com/teamshotspro/teamshots-backend/pkg/errors"
	"github.com/teamshotspro/teamshots-backend/pkg/security"
)

// Service covers the full session lifecycle plus registration.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResponse, error)
	Login(ctx context.Context, input LoginInput) (*AuthResponse, error)
	Refresh(ctx context.Context, input RefreshInput) (*AuthResponse, error)
	Logout(ctx context.Context, accessID string) error
}

type userRepository interface {
	CreateTx(tx *gorm.DB, dto users.CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type personRepository interface {
	Create(ctx context.Context, person *models.Person) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Person, error)
	SetTeamID(ctx context.Context, personID uuid.UUID, teamID *uuid.UUID) error
}

type teamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Team, error)
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams bundles auth service dependencies. The repo factories rebind
// repositories onto the active transaction; fn(nil) must return a repo bound
// to the base connection.
type ServiceParams struct {
	TxRunner          txRunner
	UserRepo          userRepository
	PersonRepoFactory func(tx *gorm.DB) personRepository
	TeamRepoFactory   func(tx *gorm.DB) teamRepository
	Sessions          sessionManager
	JWT               config.JWTConfig
	Password          config.PasswordConfig
}

type service struct {
	tx         txRunner
	users      userRepository
	personRepo func(tx *gorm.DB) personRepository
	teamRepo   func(tx *gorm.DB) teamRepository
	sessions   sessionManager
	jwt        config.JWTConfig
	password   config.PasswordConfig
}

// NewService builds the auth service.
func NewService(params ServiceParams) (Service, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if params.PersonRepoFactory == nil || params.TeamRepoFactory == nil {
		return nil, fmt.Errorf("repository factories required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	return &service{
		tx:         params.TxRunner,
		users:      params.UserRepo,
		personRepo: params.PersonRepoFactory,
		teamRepo:   params.TeamRepoFactory,
		sessions:   params.Sessions,
		jwt:        params.JWT,
		password:   params.Password,
	}, nil
}

func (s *service) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalidCredentials()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if !user.IsActive {
		return nil, invalidCredentials()
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return nil, invalidCredentials()
	}

	person, err := s.personRepo(nil).FindByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "account has no person profile")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load person")
	}

	now := time.Now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record login")
	}
	user.LastLoginAt = &now

	return s.issueSession(ctx, user, person)
}

func (s *service) Refresh(ctx context.Context, input RefreshInput) (*AuthResponse, error) {
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwt, input.AccessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, claims.ID, input.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	// Team membership and role may have changed since the token was minted,
	// so the new claims come from the database, not the old token.
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account disabled")
	}
	person, err := s.personRepo(nil).FindByUserID(ctx, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load person")
	}

	token, err := s.mintToken(ctx, user, person, newAccessID)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{
		AccessToken:  token,
		RefreshToken: newRefresh,
		User:         users.FromModel(user),
		PersonID:     person.ID,
		TeamID:       person.TeamID,
	}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) issueSession(ctx context.Context, user *models.User, person *models.Person) (*AuthResponse, error) {
	accessID := session.NewAccessID()
	refreshToken, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}

	token, err := s.mintToken(ctx, user, person, accessID)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{
		AccessToken:  token,
		RefreshToken: refreshToken,
		User:         users.FromModel(user),
		PersonID:     person.ID,
		TeamID:       person.TeamID,
	}, nil
}

func (s *service) mintToken(ctx context.Context, user *models.User, person *models.Person, accessID string) (string, error) {
	role := enums.MemberRoleMember
	if person.TeamID != nil {
		team, err := s.teamRepo(nil).FindByID(ctx, *person.TeamID)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load team")
		}
		if team.AdminID == person.ID {
			role = enums.MemberRoleAdmin
		}
	}

	token, err := pkgauth.MintAccessToken(s.jwt, time.Now().UTC(), pkgauth.AccessTokenPayload{
		UserID:       user.ID,
		ActiveTeamID: person.TeamID,
		Role:         role,
		SystemRole:   user.SystemRole,
		JTI:          accessID,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return token, nil
}

func invalidCredentials() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
}
