package styles

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/teamshotspro/teamshots-backend/pkg/db/models"
	"github.com/teamshotspro/teamshots-backend/pkg/enums"
	pkgerrors "github.com/teamshotspro/teamshots-backend/pkg/errors"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubStyleRepo struct {
	byID        map[uuid.UUID]*models.StyleContext
	cleared     []uuid.UUID
	activated   []uuid.UUID
	deactivated []uuid.UUID
	deleted     []uuid.UUID
}

func newStubStyleRepo() *stubStyleRepo {
	return &stubStyleRepo{byID: map[uuid.UUID]*models.StyleContext{}}
}

func (s *stubStyleRepo) Create(ctx context.Context, style *models.StyleContext) error {
	style.ID = uuid.New()
	s.byID[style.ID] = style
	return nil
}

func (s *stubStyleRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.StyleContext, error) {
	style, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *style
	return &copy, nil
}

func (s *stubStyleRepo) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]models.StyleContext, error) {
	var rows []models.StyleContext
	for _, style := range s.byID {
		if style.TeamID != nil && *style.TeamID == teamID {
			rows = append(rows, *style)
		}
	}
	return rows, nil
}

func (s *stubStyleRepo) ListByPerson(ctx context.Context, personID uuid.UUID) ([]models.StyleContext, error) {
	var rows []models.StyleContext
	for _, style := range s.byID {
		if style.PersonID != nil && *style.PersonID == personID {
			rows = append(rows, *style)
		}
	}
	return rows, nil
}

func (s *stubStyleRepo) Update(ctx context.Context, style *models.StyleContext) error {
	s.byID[style.ID] = style
	return nil
}

func (s *stubStyleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.byID, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubStyleRepo) ClearActiveForTeam(ctx context.Context, teamID uuid.UUID) error {
	s.cleared = append(s.cleared, teamID)
	for _, style := range s.byID {
		if style.TeamID != nil && *style.TeamID == teamID {
			style.IsActive = false
		}
	}
	return nil
}

func (s *stubStyleRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if style, ok := s.byID[id]; ok {
		style.IsActive = active
	}
	if active {
		s.activated = append(s.activated, id)
	} else {
		s.deactivated = append(s.deactivated, id)
	}
	return nil
}

type stubTeamRepo struct {
	team        *models.Team
	activeSetTo *uuid.UUID
}

func (s *stubTeamRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	if s.team == nil {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *s.team
	return &copy, nil
}

func (s *stubTeamRepo) SetActiveStyleContext(ctx context.Context, teamID uuid.UUID, styleContextID *uuid.UUID) error {
	s.activeSetTo = styleContextID
	return nil
}

type stylesFixture struct {
	svc    Service
	styles *stubStyleRepo
	teams  *stubTeamRepo
}

func newStylesFixture(t *testing.T, team *models.Team) *stylesFixture {
	t.Helper()
	f := &stylesFixture{
		styles: newStubStyleRepo(),
		teams:  &stubTeamRepo{team: team},
	}
	svc, err := NewService(ServiceParams{
		TxRunner:         stubTxRunner{},
		StyleRepoFactory: func(tx *gorm.DB) styleRepository { return f.styles },
		TeamRepoFactory:  func(tx *gorm.DB) teamRepository { return f.teams },
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	f.svc = svc
	return f
}

func TestCreateNormalizesLegacySettings(t *testing.T) {
	admin := uuid.New()
	team := &models.Team{ID: uuid.New(), Name: "Acme", AdminID: admin}
	f := newStylesFixture(t, team)

	dto, err := f.svc.Create(context.Background(), admin, CreateInput{
		Scope:    enums.CreditScopeTeam,
		TeamID:   &team.ID,
		Name:     "Corporate",
		Settings: json.RawMessage(`{"backgroundType": "studio-grey"}`),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got := dto.Settings[CategoryBackground]; got.Mode != ModePredefined || got.Value != "studio-grey" {
		t.Fatalf("background = %+v", got)
	}

	// The stored blob must be the current versioned shape, not the legacy one.
	stored := f.styles.byID[dto.ID]
	var check versionedShape
	if err := json.Unmarshal(stored.Settings, &check); err != nil || check.Version != settingsVersion {
		t.Fatalf("stored blob not normalized: %s", stored.Settings)
	}
}

func TestCreateTeamStyleRequiresAdmin(t *testing.T) {
	admin := uuid.New()
	team := &models.Team{ID: uuid.New(), Name: "Acme", AdminID: admin}
	f := newStylesFixture(t, team)

	_, err := f.svc.Create(context.Background(), uuid.New(), CreateInput{
		Scope:  enums.CreditScopeTeam,
		TeamID: &team.ID,
		Name:   "Corporate",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCreatePersonStyleOwnershipGuard(t *testing.T) {
	f := newStylesFixture(t, nil)
	actor := uuid.New()
	other := uuid.New()

	_, err := f.svc.Create(context.Background(), actor, CreateInput{
		Scope:    enums.CreditScopePerson,
		PersonID: &other,
		Name:     "Mine",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	dto, err := f.svc.Create(context.Background(), actor, CreateInput{
		Scope:    enums.CreditScopePerson,
		PersonID: &actor,
		Name:     "Mine",
	})
	if err != nil {
		t.Fatalf("Create own: %v", err)
	}
	if dto.PersonID == nil || *dto.PersonID != actor {
		t.Fatalf("unexpected owner: %+v", dto)
	}
}

func TestActivateForTeam(t *testing.T) {
	admin := uuid.New()
	team := &models.Team{ID: uuid.New(), Name: "Acme", AdminID: admin}
	f := newStylesFixture(t, team)

	previous := &models.StyleContext{
		ID: uuid.New(), Scope: enums.CreditScopeTeam, TeamID: &team.ID,
		Name: "Old", Settings: json.RawMessage(`{}`), IsActive: true,
	}
	next := &models.StyleContext{
		ID: uuid.New(), Scope: enums.CreditScopeTeam, TeamID: &team.ID,
		Name: "New", Settings: json.RawMessage(`{}`),
	}
	f.styles.byID[previous.ID] = previous
	f.styles.byID[next.ID] = next

	if err := f.svc.ActivateForTeam(context.Background(), admin, team.ID, next.ID); err != nil {
		t.Fatalf("ActivateForTeam: %v", err)
	}
	if previous.IsActive {
		t.Fatal("previous active style must be cleared")
	}
	if !next.IsActive {
		t.Fatal("new style must be active")
	}
	if f.teams.activeSetTo == nil || *f.teams.activeSetTo != next.ID {
		t.Fatal("team must point at the new style")
	}
}

func TestActivateForeignStyleRejected(t *testing.T) {
	admin := uuid.New()
	team := &models.Team{ID: uuid.New(), Name: "Acme", AdminID: admin}
	f := newStylesFixture(t, team)

	otherTeam := uuid.New()
	foreign := &models.StyleContext{
		ID: uuid.New(), Scope: enums.CreditScopeTeam, TeamID: &otherTeam,
		Name: "Foreign", Settings: json.RawMessage(`{}`),
	}
	f.styles.byID[foreign.ID] = foreign

	err := f.svc.ActivateForTeam(context.Background(), admin, team.ID, foreign.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestDeleteActiveStyleRejected(t *testing.T) {
	admin := uuid.New()
	team := &models.Team{ID: uuid.New(), Name: "Acme", AdminID: admin}
	f := newStylesFixture(t, team)

	active := &models.StyleContext{
		ID: uuid.New(), Scope: enums.CreditScopeTeam, TeamID: &team.ID,
		Name: "Active", Settings: json.RawMessage(`{}`), IsActive: true,
	}
	f.styles.byID[active.ID] = active

	err := f.svc.Delete(context.Background(), admin, active.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	active.IsActive = false
	if err := f.svc.Delete(context.Background(), admin, active.ID); err != nil {
		t.Fatalf("Delete inactive: %v", err)
	}
	if len(f.styles.deleted) != 1 {
		t.Fatal("style must be deleted")
	}
}

func TestResolve(t *testing.T) {
	f := newStylesFixture(t, nil)
	personID := uuid.New()
	style := &models.StyleContext{
		ID: uuid.New(), Scope: enums.CreditScopePerson, PersonID: &personID,
		Name:     "Mine",
		Settings: json.RawMessage(`{"background": {"mode": "predefined", "value": "office"}}`),
	}
	f.styles.byID[style.ID] = style

	resolved, err := f.svc.Resolve(context.Background(), style.ID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := resolved.Categories[CategoryBackground]; got.Mode != ModePredefined || got.Value != "office" {
		t.Fatalf("background = %+v", got)
	}
}
