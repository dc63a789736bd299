package styles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/teamshotspro/teamshots-backend/pkg/db/models"
	"github.com/teamshotspro/teamshots-backend/pkg/enums"
	pkgerrors "github.com/teamshotspro/teamshots-backend/pkg/errors"
)

// Service owns style context CRUD and settings resolution.
type Service interface {
	Create(ctx context.Context, actorPersonID uuid.UUID, input CreateInput) (*StyleContextDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*StyleContextDTO, error)
	ListForTeam(ctx context.Context, teamID uuid.UUID) ([]StyleContextDTO, error)
	ListForPerson(ctx context.Context, personID uuid.UUID) ([]StyleContextDTO, error)
	Update(ctx context.Context, actorPersonID uuid.UUID, id uuid.UUID, input UpdateInput) (*StyleContextDTO, error)
	Delete(ctx context.Context, actorPersonID uuid.UUID, id uuid.UUID) error
	ActivateForTeam(ctx context.Context, actorPersonID, teamID, styleID uuid.UUID) error
	Resolve(ctx context.Context, id uuid.UUID) (*ResolvedSettings, error)
}

// CreateInput creates a style context for a team or a single person.
type CreateInput struct {
	Scope    enums.CreditScope `json:"scope" validate:"required"`
	TeamID   *uuid.UUID        `json:"team_id"`
	PersonID *uuid.UUID        `json:"person_id"`
	Name     string            `json:"name" validate:"required,min=1,max=120"`
	Settings json.RawMessage   `json:"settings"`
}

// UpdateInput mutates name and/or settings.
type UpdateInput struct {
	Name     *string         `json:"name" validate:"omitempty,min=1,max=120"`
	Settings json.RawMessage `json:"settings"`
}

// StyleContextDTO is the transport shape; Settings is always the normalized view.
type StyleContextDTO struct {
	ID        uuid.UUID                  `json:"id"`
	Scope     enums.CreditScope          `json:"scope"`
	TeamID    *uuid.UUID                 `json:"team_id,omitempty"`
	PersonID  *uuid.UUID                 `json:"person_id,omitempty"`
	Name      string                     `json:"name"`
	Settings  map[string]CategorySetting `json:"settings"`
	IsActive  bool                       `json:"is_active"`
	CreatedAt time.Time                  `json:"created_at"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

type styleRepository interface {
	Create(ctx context.Context, style *models.StyleContext) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.StyleContext, error)
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]models.StyleContext, error)
	ListByPerson(ctx context.Context, personID uuid.UUID) ([]models.StyleContext, error)
	Update(ctx context.Context, style *models.StyleContext) error
	Delete(ctx context.Context, id uuid.UUID) error
	ClearActiveForTeam(ctx context.Context, teamID uuid.UUID) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type teamRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Team, error)
	SetActiveStyleContext(ctx context.Context, teamID uuid.UUID, styleContextID *uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams bundles style service dependencies. The repo factories rebind
// repositories onto the active transaction; fn(nil) must return a repo bound
// to the base connection.
type ServiceParams struct {
	TxRunner         txRunner
	StyleRepoFactory func(tx *gorm.DB) styleRepository
	TeamRepoFactory  func(tx *gorm.DB) teamRepository
}

type service struct {
	tx        txRunner
	styleRepo func(tx *gorm.DB) styleRepository
	teamRepo  func(tx *gorm.DB) teamRepository
}

// NewService builds the styles service.
func NewService(params ServiceParams) (Service, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.StyleRepoFactory == nil || params.TeamRepoFactory == nil {
		return nil, fmt.Errorf("repository factories required")
	}
	return &service{
		tx:        params.TxRunner,
		styleRepo: params.StyleRepoFactory,
		teamRepo:  params.TeamRepoFactory,
	}, nil
}

func (s *service) Create(ctx context.Context, actorPersonID uuid.UUID, input CreateInput) (*StyleContextDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	switch input.Scope {
	case enums.CreditScopeTeam:
		if input.TeamID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "team_id is required for team scope")
		}
		if _, err := s.requireAdmin(ctx, actorPersonID, *input.TeamID); err != nil {
			return nil, err
		}
	case enums.CreditScopePerson:
		if input.PersonID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "person_id is required for person scope")
		}
		if *input.PersonID != actorPersonID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot create styles for another person")
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid scope")
	}

	// Decode then re-encode so the stored blob is always the current shape.
	resolved, err := DecodeSettings(input.Settings)
	if err != nil {
		return nil, err
	}
	encoded, err := EncodeSettings(resolved)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode settings")
	}

	style := &models.StyleContext{
		Scope:    input.Scope,
		TeamID:   input.TeamID,
		PersonID: input.PersonID,
		Name:     name,
		Settings: encoded,
	}
	if err := s.styleRepo(nil).Create(ctx, style); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create style context")
	}
	return s.toDTO(style)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*StyleContextDTO, error) {
	style, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toDTO(style)
}

func (s *service) ListForTeam(ctx context.Context, teamID uuid.UUID) ([]StyleContextDTO, error) {
	rows, err := s.styleRepo(nil).ListByTeam(ctx, teamID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list style contexts")
	}
	return s.toDTOs(rows)
}

func (s *service) ListForPerson(ctx context.Context, personID uuid.UUID) ([]StyleContextDTO, error) {
	rows, err := s.styleRepo(nil).ListByPerson(ctx, personID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list style contexts")
	}
	return s.toDTOs(rows)
}

func (s *service) Update(ctx context.Context, actorPersonID uuid.UUID, id uuid.UUID, input UpdateInput) (*StyleContextDTO, error) {
	style, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnership(ctx, actorPersonID, style); err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		style.Name = name
	}
	if len(input.Settings) > 0 {
		resolved, err := DecodeSettings(input.Settings)
		if err != nil {
			return nil, err
		}
		encoded, err := EncodeSettings(resolved)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode settings")
		}
		style.Settings = encoded
	}

	if err := s.styleRepo(nil).Update(ctx, style); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update style context")
	}
	return s.toDTO(style)
}

func (s *service) Delete(ctx context.Context, actorPersonID uuid.UUID, id uuid.UUID) error {
	style, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireOwnership(ctx, actorPersonID, style); err != nil {
		return err
	}
	if style.IsActive {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot delete the active style context")
	}
	if err := s.styleRepo(nil).Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete style context")
	}
	return nil
}

func (s *service) ActivateForTeam(ctx context.Context, actorPersonID, teamID, styleID uuid.UUID) error {
	if _, err := s.requireAdmin(ctx, actorPersonID, teamID); err != nil {
		return err
	}

	style, err := s.load(ctx, styleID)
	if err != nil {
		return err
	}
	if style.TeamID == nil || *style.TeamID != teamID {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "style context does not belong to this team")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.styleRepo(tx)
		if err := repo.ClearActiveForTeam(ctx, teamID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear active styles")
		}
		if err := repo.SetActive(ctx, styleID, true); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "activate style")
		}
		if err := s.teamRepo(tx).SetActiveStyleContext(ctx, teamID, &styleID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "point team at style")
		}
		return nil
	})
}

func (s *service) Resolve(ctx context.Context, id uuid.UUID) (*ResolvedSettings, error) {
	style, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return DecodeSettings(style.Settings)
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.StyleContext, error) {
	style, err := s.styleRepo(nil).FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "style context not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load style context")
	}
	return style, nil
}

func (s *service) requireAdmin(ctx context.Context, actorPersonID, teamID uuid.UUID) (*models.Team, error) {
	team, err := s.teamRepo(nil).FindByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "team not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load team")
	}
	if team.AdminID != actorPersonID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "team admin required")
	}
	return team, nil
}

func (s *service) requireOwnership(ctx context.Context, actorPersonID uuid.UUID, style *models.StyleContext) error {
	switch style.Scope {
	case enums.CreditScopeTeam:
		if style.TeamID == nil {
			return pkgerrors.New(pkgerrors.CodeInternal, "team style without team id")
		}
		_, err := s.requireAdmin(ctx, actorPersonID, *style.TeamID)
		return err
	case enums.CreditScopePerson:
		if style.PersonID == nil || *style.PersonID != actorPersonID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "not your style context")
		}
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeInternal, "unknown style scope")
	}
}

func (s *service) toDTO(style *models.StyleContext) (*StyleContextDTO, error) {
	resolved, err := DecodeSettings(style.Settings)
	if err != nil {
		return nil, err
	}
	return &StyleContextDTO{
		ID:        style.ID,
		Scope:     style.Scope,
		TeamID:    style.TeamID,
		PersonID:  style.PersonID,
		Name:      style.Name,
		Settings:  resolved.Categories,
		IsActive:  style.IsActive,
		CreatedAt: style.CreatedAt,
		UpdatedAt: style.UpdatedAt,
	}, nil
}

func (s *service) toDTOs(rows []models.StyleContext) ([]StyleContextDTO, error) {
	out := make([]StyleContextDTO, 0, len(rows))
	for i := range rows {
		dto, err := s.toDTO(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *dto)
	}
	return out, nil
}
