package auth

import (
	"context"
	"strings"
	"testing"
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

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubUserRepo struct {
	byEmail   map[string]*models.User
	byID      map[uuid.UUID]*models.User
	createErr error
	lastLogin *time.Time
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byEmail: map[string]*models.User{}, byID: map[uuid.UUID]*models.User{}}
}

func (s *stubUserRepo) add(u *models.User) {
	s.byEmail[u.Email] = u
	s.byID[u.ID] = u
}

func (s *stubUserRepo) CreateTx(tx *gorm.DB, dto users.CreateUserDTO) (*models.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if _, exists := s.byEmail[dto.Email]; exists {
		return nil, gorm.ErrDuplicatedKey
	}
	user := dto.ToModel()
	user.ID = uuid.New()
	s.add(user)
	return user, nil
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u, ok := s.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *u
	return &copy, nil
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *u
	return &copy, nil
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.lastLogin = &at
	return nil
}

type stubPersonRepo struct {
	byUserID map[uuid.UUID]*models.Person
	teamSets map[uuid.UUID]*uuid.UUID
}

func newStubPersonRepo() *stubPersonRepo {
	return &stubPersonRepo{byUserID: map[uuid.UUID]*models.Person{}, teamSets: map[uuid.UUID]*uuid.UUID{}}
}

func (s *stubPersonRepo) Create(ctx context.Context, person *models.Person) error {
	person.ID = uuid.New()
	s.byUserID[person.UserID] = person
	return nil
}

func (s *stubPersonRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Person, error) {
	p, ok := s.byUserID[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *p
	return &copy, nil
}

func (s *stubPersonRepo) SetTeamID(ctx context.Context, personID uuid.UUID, teamID *uuid.UUID) error {
	s.teamSets[personID] = teamID
	return nil
}

type stubTeamRepo struct {
	byID    map[uuid.UUID]*models.Team
	created []*models.Team
}

func newStubTeamRepo() *stubTeamRepo {
	return &stubTeamRepo{byID: map[uuid.UUID]*models.Team{}}
}

func (s *stubTeamRepo) Create(ctx context.Context, team *models.Team) error {
	team.ID = uuid.New()
	s.byID[team.ID] = team
	s.created = append(s.created, team)
	return nil
}

func (s *stubTeamRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	t, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *t
	return &copy, nil
}

type stubSessions struct {
	generated []string
	rotated   [][2]string
	revoked   []string
	rotateErr error
}

func (s *stubSessions) Generate(ctx context.Context, accessID string) (string, error) {
	s.generated = append(s.generated, accessID)
	return "refresh-" + accessID, nil
}

func (s *stubSessions) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if s.rotateErr != nil {
		return "", "", s.rotateErr
	}
	s.rotated = append(s.rotated, [2]string{oldAccessID, provided})
	newID := session.NewAccessID()
	return newID, "refresh-" + newID, nil
}

func (s *stubSessions) Revoke(ctx context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret",
		Issuer:                 "teamshots",
		ExpirationMinutes:      15,
		RefreshTokenTTLMinutes: 43200,
	}
}

func testPasswordConfig() config.PasswordConfig {
	// Low-cost parameters keep the suite fast.
	return config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

type authFixture struct {
	svc      Service
	users    *stubUserRepo
	persons  *stubPersonRepo
	teams    *stubTeamRepo
	sessions *stubSessions
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		users:    newStubUserRepo(),
		persons:  newStubPersonRepo(),
		teams:    newStubTeamRepo(),
		sessions: &stubSessions{},
	}
	svc, err := NewService(ServiceParams{
		TxRunner:          stubTxRunner{},
		UserRepo:          f.users,
		PersonRepoFactory: func(tx *gorm.DB) personRepository { return f.persons },
		TeamRepoFactory:   func(tx *gorm.DB) teamRepository { return f.teams },
		Sessions:          f.sessions,
		JWT:               testJWTConfig(),
		Password:          testPasswordConfig(),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	f.svc = svc
	return f
}

func (f *authFixture) seedUser(t *testing.T, email, password string) (*models.User, *models.Person) {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig())
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Robin",
		LastName:     "Lee",
		IsActive:     true,
	}
	f.users.add(user)
	person := &models.Person{ID: uuid.New(), UserID: user.ID, DisplayName: "Robin Lee"}
	f.persons.byUserID[user.ID] = person
	return user, person
}

func TestRegisterFoundsTeam(t *testing.T) {
	f := newAuthFixture(t)
	teamName := "Acme Design"

	res, err := f.svc.Register(context.Background(), RegisterInput{
		Email:     "Robin@Example.com",
		Password:  "correct-horse-battery",
		FirstName: "Robin",
		LastName:  "Lee",
		TeamName:  &teamName,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.User.Email != "robin@example.com" {
		t.Fatalf("email not normalized: %q", res.User.Email)
	}
	if len(f.teams.created) != 1 {
		t.Fatal("expected a team to be created")
	}
	team := f.teams.created[0]
	if team.AdminID != res.PersonID {
		t.Fatal("founder must be team admin")
	}
	if res.TeamID == nil || *res.TeamID != team.ID {
		t.Fatal("response must carry the new team id")
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Fatal("register must issue a session")
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), res.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.Role != enums.MemberRoleAdmin {
		t.Fatalf("founder role = %s, want admin", claims.Role)
	}
	if claims.ActiveTeamID == nil || *claims.ActiveTeamID != team.ID {
		t.Fatal("claims must carry the team id")
	}
}

func TestRegisterWithoutTeam(t *testing.T) {
	f := newAuthFixture(t)
	res, err := f.svc.Register(context.Background(), RegisterInput{
		Email:     "solo@example.com",
		Password:  "correct-horse-battery",
		FirstName: "Sam",
		LastName:  "Poe",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.TeamID != nil {
		t.Fatal("no team expected")
	}
	if len(f.teams.created) != 0 {
		t.Fatal("no team row may be created")
	}
	if res.User.FirstName != "Sam" {
		t.Fatalf("unexpected user: %+v", res.User)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "robin@example.com", "correct-horse-battery")

	_, err := f.svc.Register(context.Background(), RegisterInput{
		Email:     "robin@example.com",
		Password:  "another-password-here",
		FirstName: "Robin",
		LastName:  "Lee",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t)
	user, person := f.seedUser(t, "robin@example.com", "correct-horse-battery")

	res, err := f.svc.Login(context.Background(), LoginInput{
		Email:    " Robin@example.com ",
		Password: "correct-horse-battery",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.User.ID != user.ID || res.PersonID != person.ID {
		t.Fatalf("unexpected identities: %+v", res)
	}
	if f.users.lastLogin == nil {
		t.Fatal("last login must be recorded")
	}
	if len(f.sessions.generated) != 1 {
		t.Fatal("a session must be generated")
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), res.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.ID != f.sessions.generated[0] {
		t.Fatal("jti must match the session access id")
	}
	if claims.Role != enums.MemberRoleMember {
		t.Fatalf("teamless person role = %s, want member", claims.Role)
	}
}

func TestLoginRejections(t *testing.T) {
	f := newAuthFixture(t)
	user, _ := f.seedUser(t, "robin@example.com", "correct-horse-battery")

	cases := []struct {
		name  string
		input LoginInput
		prep  func()
	}{
		{name: "wrong password", input: LoginInput{Email: "robin@example.com", Password: "nope-nope-nope"}},
		{name: "unknown email", input: LoginInput{Email: "ghost@example.com", Password: "correct-horse-battery"}},
		{
			name:  "inactive account",
			input: LoginInput{Email: "robin@example.com", Password: "correct-horse-battery"},
			prep:  func() { user.IsActive = false },
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.prep != nil {
				tc.prep()
			}
			_, err := f.svc.Login(context.Background(), tc.input)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
				t.Fatalf("expected unauthorized, got %v", err)
			}
			if !strings.Contains(typed.Message(), "invalid email or password") && !strings.Contains(typed.Message(), "invalid") {
				t.Fatalf("message must not leak which field failed: %q", typed.Message())
			}
		})
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	f := newAuthFixture(t)
	user, person := f.seedUser(t, "robin@example.com", "correct-horse-battery")

	accessID := session.NewAccessID()
	token, err := pkgauth.MintAccessToken(testJWTConfig(), time.Now().Add(-time.Hour), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Role:   enums.MemberRoleMember,
		JTI:    accessID,
	})
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}

	res, err := f.svc.Refresh(context.Background(), RefreshInput{
		AccessToken:  token,
		RefreshToken: "refresh-" + accessID,
	})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(f.sessions.rotated) != 1 || f.sessions.rotated[0][0] != accessID {
		t.Fatal("old session must be rotated by access id")
	}
	if res.PersonID != person.ID {
		t.Fatalf("unexpected person: %s", res.PersonID)
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), res.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.ID == accessID {
		t.Fatal("refresh must mint a new access id")
	}
}

func TestRefreshInvalidSession(t *testing.T) {
	f := newAuthFixture(t)
	user, _ := f.seedUser(t, "robin@example.com", "correct-horse-battery")
	f.sessions.rotateErr = session.ErrInvalidRefreshToken

	token, err := pkgauth.MintAccessToken(testJWTConfig(), time.Now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Role:   enums.MemberRoleMember,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}

	_, err = f.svc.Refresh(context.Background(), RefreshInput{AccessToken: token, RefreshToken: "stale"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLogout(t *testing.T) {
	f := newAuthFixture(t)
	if err := f.svc.Logout(context.Background(), "access-123"); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if len(f.sessions.revoked) != 1 || f.sessions.revoked[0] != "access-123" {
		t.Fatal("session must be revoked")
	}
}
