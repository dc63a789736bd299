package generations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/teamshotspro/teamshots-backend/internal/credits"
	"github.com/teamshotspro/teamshots-backend/internal/styles"
	"github.com/teamshotspro/teamshots-backend/pkg/config"
	"github.com/teamshotspro/teamshots-backend/pkg/db/models"
	dbtypes "github.com/teamshotspro/teamshots-backend/pkg/db/types"
	"github.com/teamshotspro/teamshots-backend/pkg/enums"
	pkgerrors "github.com/teamshotspro/teamshots-backend/pkg/errors"
	"github.com/teamshotspro/teamshots-backend/pkg/outbox"
	"github.com/teamshotspro/teamshots-backend/pkg/pagination"
)

// CreditsPerGeneration is the flat consume debit per generation request.
const CreditsPerGeneration = 5

// Service owns the generation lifecycle. Create debits credits, inserts the
// row, and queues the outbox event in one transaction; the worker drives the
// status transitions.
type Service interface {
	Create(ctx context.Context, actorUserID, personID uuid.UUID, input CreateInput) (*GenerationDTO, error)
	Get(ctx context.Context, personID, id uuid.UUID) (*GenerationDTO, error)
	List(ctx context.Context, personID uuid.UUID, params pagination.Params) (*Page, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	Complete(ctx context.Context, id uuid.UUID, resultKeys []string) error
	Fail(ctx context.Context, id uuid.UUID, reason string) error
}

// CreateInput requests a generation. StyleContextID may be omitted when the
// person's team has an active style context.
type CreateInput struct {
	StyleContextID *uuid.UUID        `json:"style_context_id"`
	SelfieIDs      []uuid.UUID       `json:"selfie_ids" validate:"required,min=1"`
	Choices        map[string]string `json:"choices"`
}

// GenerationDTO is the transport shape.
type GenerationDTO struct {
	ID             uuid.UUID              `json:"id"`
	PersonID       uuid.UUID              `json:"person_id"`
	TeamID         *uuid.UUID             `json:"team_id,omitempty"`
	StyleContextID uuid.UUID              `json:"style_context_id"`
	SelfieIDs      []uuid.UUID            `json:"selfie_ids"`
	Settings       map[string]string      `json:"settings"`
	CreditsCharged int                    `json:"credits_charged"`
	Status         enums.GenerationStatus `json:"status"`
	ResultKeys     []string               `json:"result_keys,omitempty"`
	FailureReason  *string                `json:"failure_reason,omitempty"`
	CompletedAt    *time.Time             `json:"completed_at,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}

// Page is a cursor-paginated slice of generations.
type Page struct {
	Items      []GenerationDTO `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

type generationRepository interface {
	Create(ctx context.Context, generation *models.Generation) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Generation, error)
	ListByPerson(ctx context.Context, personID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Generation, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) (int64, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, resultKeys []string, at time.Time) (int64, error)
	MarkFailed(ctx context.Context, id uuid.UUID, reason string, at time.Time) (int64, error)
}

type selfieRepository interface {
	CountUploadedByIDs(ctx context.Context, personID uuid.UUID, ids []uuid.UUID) (int64, error)
}

type personRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Person, error)
}

type teamRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Team, error)
}

type styleResolver interface {
	Resolve(ctx context.Context, id uuid.UUID) (*styles.ResolvedSettings, error)
}

type creditRecorder interface {
	RecordTx(ctx context.Context, tx *gorm.DB, input credits.RecordInput) (*models.CreditTransaction, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ServiceParams bundles generation service dependencies. The repo factories
// rebind repositories onto the active transaction; fn(nil) must return a repo
// bound to the base connection.
type ServiceParams struct {
	TxRunner              txRunner
	GenerationRepoFactory func(tx *gorm.DB) generationRepository
	SelfieRepo            selfieRepository
	PersonRepo            personRepository
	TeamRepo              teamRepository
	Styles                styleResolver
	Credits               creditRecorder
	Outbox                outboxEmitter
	SelfieLimits          config.SelfieConfig
}

type service struct {
	tx             txRunner
	generationRepo func(tx *gorm.DB) generationRepository
	selfieRepo     selfieRepository
	personRepo     personRepository
	teamRepo       teamRepository
	styles         styleResolver
	credits        creditRecorder
	outbox         outboxEmitter
	limits         config.SelfieConfig
}

// NewService builds the generations service.
func NewService(params ServiceParams) (Service, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.GenerationRepoFactory == nil {
		return nil, fmt.Errorf("generation repository factory required")
	}
	if params.SelfieRepo == nil || params.PersonRepo == nil || params.TeamRepo == nil {
		return nil, fmt.Errorf("repositories required")
	}
	if params.Styles == nil {
		return nil, fmt.Errorf("style resolver required")
	}
	if params.Credits == nil {
		return nil, fmt.Errorf("credits service required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{
		tx:             params.TxRunner,
		generationRepo: params.GenerationRepoFactory,
		selfieRepo:     params.SelfieRepo,
		personRepo:     params.PersonRepo,
		teamRepo:       params.TeamRepo,
		styles:         params.Styles,
		credits:        params.Credits,
		outbox:         params.Outbox,
		limits:         params.SelfieLimits,
	}, nil
}

func (s *service) Create(ctx context.Context, actorUserID, personID uuid.UUID, input CreateInput) (*GenerationDTO, error) {
	if len(input.SelfieIDs) < s.limits.MinPerRequest {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one uploaded selfie is required")
	}
	if s.limits.MaxPerRequest > 0 && len(input.SelfieIDs) > s.limits.MaxPerRequest {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "too many selfies for one generation").
			WithDetails(map[string]int{"max": s.limits.MaxPerRequest})
	}

	person, err := s.personRepo.FindByID(ctx, personID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "person not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load person")
	}

	uploaded, err := s.selfieRepo.CountUploadedByIDs(ctx, personID, input.SelfieIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check selfies")
	}
	if uploaded != int64(len(input.SelfieIDs)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "every selfie must be an uploaded photo you own")
	}

	styleContextID, err := s.pickStyleContext(ctx, person, input.StyleContextID)
	if err != nil {
		return nil, err
	}

	resolved, err := s.styles.Resolve(ctx, styleContextID)
	if err != nil {
		return nil, err
	}
	final, err := styles.FinalizeChoices(resolved, input.Choices)
	if err != nil {
		return nil, err
	}
	snapshot, err := json.Marshal(final)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "snapshot settings")
	}

	generation := &models.Generation{
		PersonID:         personID,
		TeamID:           person.TeamID,
		StyleContextID:   styleContextID,
		SelfieIDs:        dbtypes.UUIDArray(input.SelfieIDs),
		SettingsSnapshot: snapshot,
		CreditsCharged:   CreditsPerGeneration,
		Status:           enums.GenerationStatusQueued,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		metadata, _ := json.Marshal(map[string]string{"reason": "generation"})
		if _, err := s.credits.RecordTx(ctx, tx, credits.RecordInput{
			Scope:       enums.CreditScopePerson,
			PersonID:    &personID,
			Type:        enums.CreditTxnConsume,
			Amount:      -CreditsPerGeneration,
			ActorUserID: actorUserID,
			Metadata:    metadata,
		}); err != nil {
			return err
		}

		if err := s.generationRepo(tx).Create(ctx, generation); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create generation")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventGenerationRequested,
			AggregateType: enums.AggregateGeneration,
			AggregateID:   generation.ID,
			Actor:         &outbox.ActorRef{UserID: actorUserID, TeamID: person.TeamID},
			Data: map[string]any{
				"generation_id":    generation.ID.String(),
				"person_id":        personID.String(),
				"style_context_id": styleContextID.String(),
				"selfie_ids":       input.SelfieIDs,
				"settings":         final,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}

	return fromModel(generation), nil
}

func (s *service) Get(ctx context.Context, personID, id uuid.UUID) (*GenerationDTO, error) {
	generation, err := s.generationRepo(nil).FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "generation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load generation")
	}
	if generation.PersonID != personID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "generation not found")
	}
	return fromModel(generation), nil
}

func (s *service) List(ctx context.Context, personID uuid.UUID, params pagination.Params) (*Page, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	rows, err := s.generationRepo(nil).ListByPerson(ctx, personID, pagination.LimitWithBuffer(limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list generations")
	}

	page := &Page{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	page.Items = make([]GenerationDTO, 0, len(rows))
	for i := range rows {
		page.Items = append(page.Items, *fromModel(&rows[i]))
	}
	return page, nil
}

func (s *service) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	affected, err := s.generationRepo(nil).MarkProcessing(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark processing")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "generation is not queued")
	}
	return nil
}

func (s *service) Complete(ctx context.Context, id uuid.UUID, resultKeys []string) error {
	if len(resultKeys) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "result keys required")
	}
	affected, err := s.generationRepo(nil).MarkCompleted(ctx, id, resultKeys, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark completed")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "generation already finished")
	}
	return nil
}

// Fail finishes the generation and refunds the consumed credits in the same
// transaction, so a failed job never costs the member anything.
func (s *service) Fail(ctx context.Context, id uuid.UUID, reason string) error {
	generation, err := s.generationRepo(nil).FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "generation not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load generation")
	}

	person, err := s.personRepo.FindByID(ctx, generation.PersonID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load person")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.generationRepo(tx).MarkFailed(ctx, id, reason, time.Now().UTC())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark failed")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "generation already finished")
		}

		metadata, _ := json.Marshal(map[string]string{"reason": "generation_failed", "generation_id": id.String()})
		_, err = s.credits.RecordTx(ctx, tx, credits.RecordInput{
			Scope:       enums.CreditScopePerson,
			PersonID:    &generation.PersonID,
			Type:        enums.CreditTxnRefund,
			Amount:      generation.CreditsCharged,
			ActorUserID: person.UserID,
			Metadata:    metadata,
		})
		return err
	})
}

func (s *service) pickStyleContext(ctx context.Context, person *models.Person, requested *uuid.UUID) (uuid.UUID, error) {
	if requested != nil {
		return *requested, nil
	}
	if person.TeamID == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "style_context_id is required")
	}
	team, err := s.teamRepo.FindByID(ctx, *person.TeamID)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load team")
	}
	if team.ActiveStyleContextID == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeStateConflict, "team has no active style context")
	}
	return *team.ActiveStyleContextID, nil
}

func fromModel(m *models.Generation) *GenerationDTO {
	var settings map[string]string
	_ = json.Unmarshal(m.SettingsSnapshot, &settings)
	return &GenerationDTO{
		ID:             m.ID,
		PersonID:       m.PersonID,
		TeamID:         m.TeamID,
		StyleContextID: m.StyleContextID,
		SelfieIDs:      []uuid.UUID(m.SelfieIDs),
		Settings:       settings,
		CreditsCharged: m.CreditsCharged,
		Status:         m.Status,
		ResultKeys:     []string(m.ResultKeys),
		FailureReason:  m.FailureReason,
		CompletedAt:    m.CompletedAt,
		CreatedAt:      m.CreatedAt,
	}
}
