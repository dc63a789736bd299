package teams

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/teamshotspro/teamshots-backend/internal/invites"
	"github.com/teamshotspro/teamshots-backend/internal/persons"
	"github.com/teamshotspro/teamshots-backend/pkg/db/models"
	"github.com/teamshotspro/teamshots-backend/pkg/enums"
	pkgerrors "github.com/teamshotspro/teamshots-backend/pkg/errors"
	"github.com/teamshotspro/teamshots-backend/pkg/outbox"
)

const (
	inviteTTL        = 14 * 24 * time.Hour
	inviteTokenBytes = 32
)

// Service exposes team and membership operations.
type Service interface {
	Get(ctx context.Context, teamID uuid.UUID) (*TeamDTO, error)
	Update(ctx context.Context, actorPersonID, teamID uuid.UUID, input UpdateTeamInput) (*TeamDTO, error)
	ListMembers(ctx context.Context, teamID uuid.UUID) ([]MemberDTO, error)
	InviteMember(ctx context.Context, actorUserID, actorPersonID, teamID uuid.UUID, input InviteMemberInput) (*InviteDTO, error)
	AcceptInvite(ctx context.Context, userID uuid.UUID, input AcceptInviteInput) (*TeamDTO, error)
	RemoveMember(ctx context.Context, actorUserID, actorPersonID, teamID, targetPersonID uuid.UUID) error
	ReactivateMember(ctx context.Context, actorPersonID, teamID, targetPersonID uuid.UUID) (*InviteDTO, error)
	PromoteAdmin(ctx context.Context, actorPersonID, teamID, targetPersonID uuid.UUID) (*TeamDTO, error)
}

type teamRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Team, error)
	Update(ctx context.Context, team *models.Team) error
	SetAdmin(ctx context.Context, teamID, adminID uuid.UUID) error
}

type personRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Person, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Person, error)
	SetTeamID(ctx context.Context, personID uuid.UUID, teamID *uuid.UUID) error
	ListTeamMembers(ctx context.Context, teamID uuid.UUID) ([]persons.MemberRow, error)
}

type inviteRepository interface {
	Create(ctx context.Context, invite *models.TeamInvite) error
	FindByToken(ctx context.Context, token string) (*models.TeamInvite, error)
	FindByTeamAndPerson(ctx context.Context, teamID, personID uuid.UUID) (*models.TeamInvite, error)
	FindPendingByTeamAndEmail(ctx context.Context, teamID uuid.UUID, email string, now time.Time) (*models.TeamInvite, error)
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]models.TeamInvite, error)
	Accept(ctx context.Context, id, personID uuid.UUID) error
	Revoke(ctx context.Context, id uuid.UUID, now time.Time) error
	Reactivate(ctx context.Context, id uuid.UUID, expiresAt time.Time) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ServiceParams bundles the dependencies for the teams service. The repo
// factories rebind repositories onto the active transaction; fn(nil) must
// return a repo bound to the base connection.
type ServiceParams struct {
	TxRunner          txRunner
	TeamRepoFactory   func(tx *gorm.DB) teamRepository
	PersonRepoFactory func(tx *gorm.DB) personRepository
	InviteRepoFactory func(tx *gorm.DB) inviteRepository
	Outbox            outboxEmitter
	ReturnInviteToken bool
}

type service struct {
	tx          txRunner
	teamRepo    func(tx *gorm.DB) teamRepository
	personRepo  func(tx *gorm.DB) personRepository
	inviteRepo  func(tx *gorm.DB) inviteRepository
	outbox      outboxEmitter
	returnToken bool
}

// NewService builds a teams service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.TeamRepoFactory == nil || params.PersonRepoFactory == nil || params.InviteRepoFactory == nil {
		return nil, fmt.Errorf("repository factories required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{
		tx:          params.TxRunner,
		teamRepo:    params.TeamRepoFactory,
		personRepo:  params.PersonRepoFactory,
		inviteRepo:  params.InviteRepoFactory,
		outbox:      params.Outbox,
		returnToken: params.ReturnInviteToken,
	}, nil
}

// DefaultRepoFactories wires the concrete repositories onto a base connection.
func DefaultRepoFactories(base *gorm.DB) (func(tx *gorm.DB) teamRepository, func(tx *gorm.DB) personRepository, func(tx *gorm.DB) inviteRepository) {
	teamFactory := func(tx *gorm.DB) teamRepository {
		return NewRepository(base).WithTx(tx)
	}
	personFactory := func(tx *gorm.DB) personRepository {
		return persons.NewRepository(base).WithTx(tx)
	}
	inviteFactory := func(tx *gorm.DB) inviteRepository {
		return invites.NewRepository(base).WithTx(tx)
	}
	return teamFactory, personFactory, inviteFactory
}

func (s *service) Get(ctx context.Context, teamID uuid.UUID) (*TeamDTO, error) {
	team, err := s.loadTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return FromModel(team), nil
}

func (s *service) Update(ctx context.Context, actorPersonID, teamID uuid.UUID, input UpdateTeamInput) (*TeamDTO, error) {
	team, err := s.requireAdmin(ctx, actorPersonID, teamID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "team name cannot be empty")
		}
		team.Name = name
	}

	if err := s.teamRepo(nil).Update(ctx, team); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update team")
	}
	return FromModel(team), nil
}

func (s *service) ListMembers(ctx context.Context, teamID uuid.UUID) ([]MemberDTO, error) {
	team, err := s.loadTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	rows, err := s.personRepo(nil).ListTeamMembers(ctx, teamID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list team members")
	}

	seatRows, err := s.inviteRepo(nil).ListByTeam(ctx, teamID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seat records")
	}
	// Rows arrive newest first; keep the latest seat record per person.
	seatByPerson := make(map[uuid.UUID]models.TeamInvite, len(seatRows))
	for _, invite := range seatRows {
		if invite.PersonID == nil {
			continue
		}
		if _, ok := seatByPerson[*invite.PersonID]; !ok {
			seatByPerson[*invite.PersonID] = invite
		}
	}

	now := time.Now().UTC()
	members := make([]MemberDTO, 0, len(rows))
	for _, row := range rows {
		role := enums.MemberRoleMember
		if row.Person.ID == team.AdminID {
			role = enums.MemberRoleAdmin
		}
		seatActive := false
		if invite, ok := seatByPerson[row.Person.ID]; ok && invite.Consumed() && !invite.Revoked(now) {
			seatActive = true
		}
		members = append(members, MemberDTO{
			PersonID:    row.Person.ID,
			UserID:      row.Person.UserID,
			Email:       row.Email,
			FirstName:   row.FirstName,
			LastName:    row.LastName,
			DisplayName: row.Person.DisplayName,
			Role:        role,
			SeatActive:  seatActive,
			JoinedAt:    row.Person.CreatedAt,
		})
	}
	return members, nil
}

func (s *service) InviteMember(ctx context.Context, actorUserID, actorPersonID, teamID uuid.UUID, input InviteMemberInput) (*InviteDTO, error) {
	if _, err := s.requireAdmin(ctx, actorPersonID, teamID); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	now := time.Now().UTC()
	if existing, err := s.inviteRepo(nil).FindPendingByTeamAndEmail(ctx, teamID, email, now); err == nil && existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a pending invite already exists for this email")
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check pending invite")
	}

	token, err := generateInviteToken()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate invite token")
	}

	invite := &models.TeamInvite{
		TeamID:          teamID,
		Email:           email,
		Token:           token,
		InvitedByUserID: actorUserID,
		ExpiresAt:       now.Add(inviteTTL),
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.inviteRepo(tx).Create(ctx, invite); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create invite")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTeamMemberInvited,
			AggregateType: enums.AggregateTeam,
			AggregateID:   teamID,
			Actor:         &outbox.ActorRef{UserID: actorUserID, TeamID: &teamID, Role: string(enums.MemberRoleAdmin)},
			Data:          map[string]string{"invite_id": invite.ID.String(), "email": email},
			Version:       1,
		})
	})
	if err != nil {
		return nil, err
	}

	// Mail dispatch is out of scope; dev deployments surface the token so the
	// accept flow can be exercised end to end.
	return inviteFromModel(invite, s.returnToken), nil
}

func (s *service) AcceptInvite(ctx context.Context, userID uuid.UUID, input AcceptInviteInput) (*TeamDTO, error) {
	token := strings.TrimSpace(input.Token)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "token is required")
	}

	person, err := s.personRepo(nil).FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "person profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load person")
	}
	if person.TeamID != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "person already belongs to a team")
	}

	invite, err := s.inviteRepo(nil).FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invite not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invite")
	}

	now := time.Now().UTC()
	if invite.Revoked(now) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invite has expired")
	}
	if invite.PersonID != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "invite already accepted")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.inviteRepo(tx).Accept(ctx, invite.ID, person.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "accept invite")
		}
		teamID := invite.TeamID
		if err := s.personRepo(tx).SetTeamID(ctx, person.ID, &teamID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "join team")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, invite.TeamID)
}

func (s *service) RemoveMember(ctx context.Context, actorUserID, actorPersonID, teamID, targetPersonID uuid.UUID) error {
	team, err := s.requireAdmin(ctx, actorPersonID, teamID)
	if err != nil {
		return err
	}

	// The sole admin cannot remove themselves without first promoting a
	// replacement.
	if targetPersonID == team.AdminID {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "promote a replacement admin before removing the current one")
	}

	target, err := s.personRepo(nil).FindByID(ctx, targetPersonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "person not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load person")
	}
	if target.TeamID == nil || *target.TeamID != teamID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "person is not on this team")
	}

	invite, err := s.inviteRepo(nil).FindByTeamAndPerson(ctx, teamID, targetPersonID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invite")
	}

	now := time.Now().UTC()
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.personRepo(tx).SetTeamID(ctx, targetPersonID, nil); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "detach person")
		}
		if invite != nil {
			if err := s.inviteRepo(tx).Revoke(ctx, invite.ID, now); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke invite")
			}
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSeatRevoked,
			AggregateType: enums.AggregateSeat,
			AggregateID:   targetPersonID,
			Actor:         &outbox.ActorRef{UserID: actorUserID, TeamID: &teamID, Role: string(enums.MemberRoleAdmin)},
			Data:          map[string]string{"team_id": teamID.String(), "person_id": targetPersonID.String()},
			Version:       1,
		})
	})
}

func (s *service) ReactivateMember(ctx context.Context, actorPersonID, teamID, targetPersonID uuid.UUID) (*InviteDTO, error) {
	if _, err := s.requireAdmin(ctx, actorPersonID, teamID); err != nil {
		return nil, err
	}

	invite, err := s.inviteRepo(nil).FindByTeamAndPerson(ctx, teamID, targetPersonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no historical seat record for this person")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invite")
	}

	now := time.Now().UTC()
	if !invite.Revoked(now) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "seat is already active")
	}

	// The row is already accepted, so the acceptance TTL does not apply;
	// the restored seat stays live until the next explicit revocation.
	expiresAt := invites.OpenEndedExpiry
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.inviteRepo(tx).Reactivate(ctx, invite.ID, expiresAt); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reactivate invite")
		}
		return s.personRepo(tx).SetTeamID(ctx, targetPersonID, &teamID)
	})
	if err != nil {
		return nil, err
	}

	invite.ExpiresAt = expiresAt
	return inviteFromModel(invite, false), nil
}

func (s *service) PromoteAdmin(ctx context.Context, actorPersonID, teamID, targetPersonID uuid.UUID) (*TeamDTO, error) {
	team, err := s.requireAdmin(ctx, actorPersonID, teamID)
	if err != nil {
		return nil, err
	}

	if targetPersonID == team.AdminID {
		return FromModel(team), nil
	}

	target, err := s.personRepo(nil).FindByID(ctx, targetPersonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "person not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load person")
	}
	if target.TeamID == nil || *target.TeamID != teamID {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "admin must be a member of the team")
	}

	if err := s.teamRepo(nil).SetAdmin(ctx, teamID, targetPersonID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set admin")
	}

	team.AdminID = targetPersonID
	return FromModel(team), nil
}

func (s *service) loadTeam(ctx context.Context, teamID uuid.UUID) (*models.Team, error) {
	team, err := s.teamRepo(nil).FindByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "team not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load team")
	}
	return team, nil
}

func (s *service) requireAdmin(ctx context.Context, actorPersonID, teamID uuid.UUID) (*models.Team, error) {
	team, err := s.loadTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.AdminID != actorPersonID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "team admin required")
	}
	return team, nil
}

func generateInviteToken() (string, error) {
	buf := make([]byte, inviteTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
