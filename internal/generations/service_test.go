package generations

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/teamshotspro/teamshots-backend/internal/credits"
	"github.com/teamshotspro/teamshots-backend/internal/styles"
	"github.com/teamshotspro/teamshots-backend/pkg/config"
	"github.com/teamshotspro/teamshots-backend/pkg/db/models"
	"github.com/teamshotspro/teamshots-backend/pkg/enums"
	pkgerrors "github.com/teamshotspro/teamshots-backend/pkg/errors"
	"github.com/teamshotspro/teamshots-backend/pkg/outbox"
	"github.com/teamshotspro/teamshots-backend/pkg/pagination"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubGenerationRepo struct {
	byID      map[uuid.UUID]*models.Generation
	created   []*models.Generation
	failed    []uuid.UUID
	completed []uuid.UUID
}

func newStubGenerationRepo() *stubGenerationRepo {
	return &stubGenerationRepo{byID: map[uuid.UUID]*models.Generation{}}
}

func (s *stubGenerationRepo) Create(ctx context.Context, generation *models.Generation) error {
	generation.ID = uuid.New()
	generation.CreatedAt = time.Now()
	s.byID[generation.ID] = generation
	s.created = append(s.created, generation)
	return nil
}

func (s *stubGenerationRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Generation, error) {
	g, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *g
	return &copy, nil
}

func (s *stubGenerationRepo) ListByPerson(ctx context.Context, personID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Generation, error) {
	var rows []models.Generation
	for _, g := range s.byID {
		if g.PersonID == personID {
			rows = append(rows, *g)
		}
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *stubGenerationRepo) MarkProcessing(ctx context.Context, id uuid.UUID) (int64, error) {
	g, ok := s.byID[id]
	if !ok || g.Status != enums.GenerationStatusQueued {
		return 0, nil
	}
	g.Status = enums.GenerationStatusProcessing
	return 1, nil
}

func (s *stubGenerationRepo) MarkCompleted(ctx context.Context, id uuid.UUID, resultKeys []string, at time.Time) (int64, error) {
	g, ok := s.byID[id]
	if !ok || (g.Status != enums.GenerationStatusQueued && g.Status != enums.GenerationStatusProcessing) {
		return 0, nil
	}
	g.Status = enums.GenerationStatusCompleted
	g.ResultKeys = pq.StringArray(resultKeys)
	g.CompletedAt = &at
	s.completed = append(s.completed, id)
	return 1, nil
}

func (s *stubGenerationRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string, at time.Time) (int64, error) {
	g, ok := s.byID[id]
	if !ok || (g.Status != enums.GenerationStatusQueued && g.Status != enums.GenerationStatusProcessing) {
		return 0, nil
	}
	g.Status = enums.GenerationStatusFailed
	g.FailureReason = &reason
	g.CompletedAt = &at
	s.failed = append(s.failed, id)
	return 1, nil
}

type stubSelfieRepo struct {
	uploaded int64
}

func (s *stubSelfieRepo) CountUploadedByIDs(ctx context.Context, personID uuid.UUID, ids []uuid.UUID) (int64, error) {
	return s.uploaded, nil
}

type stubPersonRepo struct {
	person *models.Person
}

func (s *stubPersonRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Person, error) {
	if s.person == nil || s.person.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *s.person
	return &copy, nil
}

type stubTeamRepo struct {
	team *models.Team
}

func (s *stubTeamRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	if s.team == nil {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *s.team
	return &copy, nil
}

type stubStyles struct {
	resolved *styles.ResolvedSettings
	err      error
}

func (s *stubStyles) Resolve(ctx context.Context, id uuid.UUID) (*styles.ResolvedSettings, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.resolved, nil
}

type stubCredits struct {
	records []credits.RecordInput
	err     error
}

func (s *stubCredits) RecordTx(ctx context.Context, tx *gorm.DB, input credits.RecordInput) (*models.CreditTransaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.records = append(s.records, input)
	return &models.CreditTransaction{ID: uuid.New(), Amount: input.Amount}, nil
}

type stubOutbox struct {
	events []outbox.DomainEvent
	err    error
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

type genFixture struct {
	svc     Service
	gens    *stubGenerationRepo
	selfies *stubSelfieRepo
	persons *stubPersonRepo
	teams   *stubTeamRepo
	styles  *stubStyles
	credits *stubCredits
	outbox  *stubOutbox
}

func newGenFixture(t *testing.T, person *models.Person) *genFixture {
	t.Helper()
	f := &genFixture{
		gens:    newStubGenerationRepo(),
		selfies: &stubSelfieRepo{},
		persons: &stubPersonRepo{person: person},
		teams:   &stubTeamRepo{},
		styles: &stubStyles{resolved: &styles.ResolvedSettings{Categories: map[string]styles.CategorySetting{
			styles.CategoryBackground: {Mode: styles.ModePredefined, Value: "office"},
		}}},
		credits: &stubCredits{},
		outbox:  &stubOutbox{},
	}
	svc, err := NewService(ServiceParams{
		TxRunner:              stubTxRunner{},
		GenerationRepoFactory: func(tx *gorm.DB) generationRepository { return f.gens },
		SelfieRepo:            f.selfies,
		PersonRepo:            f.persons,
		TeamRepo:              f.teams,
		Styles:                f.styles,
		Credits:               f.credits,
		Outbox:                f.outbox,
		SelfieLimits:          config.SelfieConfig{MinPerRequest: 1, MaxPerRequest: 8},
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	f.svc = svc
	return f
}

func TestCreateDebitsAndQueues(t *testing.T) {
	person := &models.Person{ID: uuid.New(), UserID: uuid.New()}
	f := newGenFixture(t, person)
	f.selfies.uploaded = 2
	styleID := uuid.New()
	actorUser := uuid.New()

	dto, err := f.svc.Create(context.Background(), actorUser, person.ID, CreateInput{
		StyleContextID: &styleID,
		SelfieIDs:      []uuid.UUID{uuid.New(), uuid.New()},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if dto.Status != enums.GenerationStatusQueued {
		t.Fatalf("status = %s, want queued", dto.Status)
	}
	if dto.CreditsCharged != CreditsPerGeneration {
		t.Fatalf("credits charged = %d", dto.CreditsCharged)
	}
	if dto.Settings[styles.CategoryBackground] != "office" {
		t.Fatalf("settings = %+v", dto.Settings)
	}

	if len(f.credits.records) != 1 {
		t.Fatal("expected one consume debit")
	}
	debit := f.credits.records[0]
	if debit.Type != enums.CreditTxnConsume || debit.Amount != -CreditsPerGeneration {
		t.Fatalf("debit = %+v", debit)
	}
	if debit.Scope != enums.CreditScopePerson || debit.PersonID == nil || *debit.PersonID != person.ID {
		t.Fatalf("debit scope = %+v", debit)
	}

	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != "generation_requested" {
		t.Fatalf("expected generation_requested event, got %+v", f.outbox.events)
	}
}

func TestCreateUsesTeamActiveStyle(t *testing.T) {
	teamID := uuid.New()
	person := &models.Person{ID: uuid.New(), UserID: uuid.New(), TeamID: &teamID}
	f := newGenFixture(t, person)
	f.selfies.uploaded = 1
	activeStyle := uuid.New()
	f.teams.team = &models.Team{ID: teamID, AdminID: uuid.New(), ActiveStyleContextID: &activeStyle}

	dto, err := f.svc.Create(context.Background(), uuid.New(), person.ID, CreateInput{
		SelfieIDs: []uuid.UUID{uuid.New()},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if dto.StyleContextID != activeStyle {
		t.Fatalf("style = %s, want team active %s", dto.StyleContextID, activeStyle)
	}
	if dto.TeamID == nil || *dto.TeamID != teamID {
		t.Fatal("generation must carry the team id")
	}
}

func TestCreateRejections(t *testing.T) {
	person := &models.Person{ID: uuid.New(), UserID: uuid.New()}
	styleID := uuid.New()

	cases := []struct {
		name     string
		setup    func(f *genFixture)
		input    CreateInput
		wantCode pkgerrors.Code
	}{
		{
			name:     "no selfies",
			setup:    func(f *genFixture) {},
			input:    CreateInput{StyleContextID: &styleID},
			wantCode: pkgerrors.CodeValidation,
		},
		{
			name:     "selfie not uploaded",
			setup:    func(f *genFixture) { f.selfies.uploaded = 0 },
			input:    CreateInput{StyleContextID: &styleID, SelfieIDs: []uuid.UUID{uuid.New()}},
			wantCode: pkgerrors.CodeValidation,
		},
		{
			name: "missing user choice",
			setup: func(f *genFixture) {
				f.selfies.uploaded = 1
				f.styles.resolved = &styles.ResolvedSettings{Categories: map[string]styles.CategorySetting{
					styles.CategoryExpression: {Mode: styles.ModeUserChoice, Options: []string{"serious"}},
				}}
			},
			input:    CreateInput{StyleContextID: &styleID, SelfieIDs: []uuid.UUID{uuid.New()}},
			wantCode: pkgerrors.CodeValidation,
		},
		{
			name: "no style available",
			setup: func(f *genFixture) {
				f.selfies.uploaded = 1
			},
			input:    CreateInput{SelfieIDs: []uuid.UUID{uuid.New()}},
			wantCode: pkgerrors.CodeValidation,
		},
		{
			name: "insufficient credits",
			setup: func(f *genFixture) {
				f.selfies.uploaded = 1
				f.credits.err = pkgerrors.New(pkgerrors.CodeInsufficient, "insufficient balance")
			},
			input:    CreateInput{StyleContextID: &styleID, SelfieIDs: []uuid.UUID{uuid.New()}},
			wantCode: pkgerrors.CodeInsufficient,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newGenFixture(t, person)
			tc.setup(f)
			_, err := f.svc.Create(context.Background(), uuid.New(), person.ID, tc.input)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != tc.wantCode {
				t.Fatalf("expected %s, got %v", tc.wantCode, err)
			}
			if len(f.gens.created) != 0 {
				t.Fatal("no generation row may be created on rejection")
			}
		})
	}
}

func TestGetHidesForeignGenerations(t *testing.T) {
	person := &models.Person{ID: uuid.New(), UserID: uuid.New()}
	f := newGenFixture(t, person)
	g := &models.Generation{PersonID: person.ID, Status: enums.GenerationStatusQueued, SettingsSnapshot: []byte(`{}`)}
	f.gens.Create(context.Background(), g)

	if _, err := f.svc.Get(context.Background(), person.ID, g.ID); err != nil {
		t.Fatalf("Get own: %v", err)
	}
	_, err := f.svc.Get(context.Background(), uuid.New(), g.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLifecycleTransitions(t *testing.T) {
	person := &models.Person{ID: uuid.New(), UserID: uuid.New()}
	f := newGenFixture(t, person)
	g := &models.Generation{PersonID: person.ID, Status: enums.GenerationStatusQueued, SettingsSnapshot: []byte(`{}`)}
	f.gens.Create(context.Background(), g)

	if err := f.svc.MarkProcessing(context.Background(), g.ID); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	// Processing twice is a state conflict.
	err := f.svc.MarkProcessing(context.Background(), g.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	if err := f.svc.Complete(context.Background(), g.ID, []string{"results/a.jpg"}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if g.Status != enums.GenerationStatusCompleted || len(g.ResultKeys) != 1 {
		t.Fatalf("generation = %+v", g)
	}

	// Completing again is rejected.
	err = f.svc.Complete(context.Background(), g.ID, []string{"results/b.jpg"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestFailRefundsCredits(t *testing.T) {
	person := &models.Person{ID: uuid.New(), UserID: uuid.New()}
	f := newGenFixture(t, person)
	g := &models.Generation{
		PersonID:         person.ID,
		Status:           enums.GenerationStatusProcessing,
		CreditsCharged:   CreditsPerGeneration,
		SettingsSnapshot: []byte(`{}`),
	}
	f.gens.Create(context.Background(), g)

	if err := f.svc.Fail(context.Background(), g.ID, "provider timeout"); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if g.Status != enums.GenerationStatusFailed || g.FailureReason == nil {
		t.Fatalf("generation = %+v", g)
	}
	if len(f.credits.records) != 1 {
		t.Fatal("expected a refund ledger row")
	}
	refund := f.credits.records[0]
	if refund.Type != enums.CreditTxnRefund || refund.Amount != CreditsPerGeneration {
		t.Fatalf("refund = %+v", refund)
	}

	// A finished generation cannot be failed again, so no double refund.
	err := f.svc.Fail(context.Background(), g.ID, "again")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(f.credits.records) != 1 {
		t.Fatal("refund must not be repeated")
	}
}
