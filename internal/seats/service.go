package seats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/teamshotspro/teamshots-backend/internal/billing"
	"github.com/teamshotspro/teamshots-backend/internal/credits"
	"github.com/teamshotspro/teamshots-backend/pkg/db/models"
	"github.com/teamshotspro/teamshots-backend/pkg/enums"
	pkgerrors "github.com/teamshotspro/teamshots-backend/pkg/errors"
	"github.com/teamshotspro/teamshots-backend/pkg/outbox"
)

// Service assigns team seats. Assignment consumes the member's invite and
// funds their personal balance from the team pool in the same transaction.
type Service interface {
	AssignSeat(ctx context.Context, actorUserID, actorPersonID, teamID, targetPersonID uuid.UUID) (*AssignResult, error)
	Capacity(ctx context.Context, teamID uuid.UUID) (*CapacityDTO, error)
}

// AssignResult reports the consumed seat and the credit transfer that funded it.
type AssignResult struct {
	InviteID      uuid.UUID  `json:"invite_id"`
	PersonID      uuid.UUID  `json:"person_id"`
	UsedAt        time.Time  `json:"used_at"`
	Allotment     int        `json:"allotment"`
	CounterpartID *uuid.UUID `json:"counterpart_id,omitempty"`
}

// CapacityDTO summarizes seat usage against the purchased tier.
type CapacityDTO struct {
	Tier    enums.SeatTier `json:"tier"`
	Total   int            `json:"total"`
	Current int            `json:"current"`
}

type teamRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Team, error)
}

type personRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Person, error)
}

type inviteRepository interface {
	FindByTeamAndPerson(ctx context.Context, teamID, personID uuid.UUID) (*models.TeamInvite, error)
	CountConsumedSeats(ctx context.Context, teamID uuid.UUID, now time.Time) (int64, error)
	HasConsumedSeat(ctx context.Context, teamID, personID uuid.UUID, now time.Time) (bool, error)
	MarkUsed(ctx context.Context, id uuid.UUID, at time.Time) error
}

type creditTransferer interface {
	TransferTx(ctx context.Context, tx *gorm.DB, input credits.TransferInput) (*credits.TransferResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ServiceParams bundles seat service dependencies. The repo factories rebind
// repositories onto the active transaction; fn(nil) must return a repo bound
// to the base connection.
type ServiceParams struct {
	TxRunner          txRunner
	TeamRepoFactory   func(tx *gorm.DB) teamRepository
	PersonRepoFactory func(tx *gorm.DB) personRepository
	InviteRepoFactory func(tx *gorm.DB) inviteRepository
	Credits           creditTransferer
	Outbox            outboxEmitter
}

type service struct {
	tx         txRunner
	teamRepo   func(tx *gorm.DB) teamRepository
	personRepo func(tx *gorm.DB) personRepository
	inviteRepo func(tx *gorm.DB) inviteRepository
	credits    creditTransferer
	outbox     outboxEmitter
}

// NewService builds the seats service.
func NewService(params ServiceParams) (Service, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.TeamRepoFactory == nil || params.PersonRepoFactory == nil || params.InviteRepoFactory == nil {
		return nil, fmt.Errorf("repository factories required")
	}
	if params.Credits == nil {
		return nil, fmt.Errorf("credits service required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{
		tx:         params.TxRunner,
		teamRepo:   params.TeamRepoFactory,
		personRepo: params.PersonRepoFactory,
		inviteRepo: params.InviteRepoFactory,
		credits:    params.Credits,
		outbox:     params.Outbox,
	}, nil
}

func (s *service) AssignSeat(ctx context.Context, actorUserID, actorPersonID, teamID, targetPersonID uuid.UUID) (*AssignResult, error) {
	team, err := s.teamRepo(nil).FindByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "team not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load team")
	}
	// Self-assignment is allowed; everything else needs the admin.
	if team.AdminID != actorPersonID && targetPersonID != actorPersonID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "team admin required")
	}
	if team.ActiveStyleContextID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "team has no active style context")
	}

	plan, err := billing.PlanForTier(team.SeatTier)
	if err != nil {
		return nil, err
	}

	target, err := s.personRepo(nil).FindByID(ctx, targetPersonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "person not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load person")
	}
	if target.TeamID == nil || *target.TeamID != teamID {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "person has not joined the team")
	}

	now := time.Now().UTC()
	var result AssignResult

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		invRepo := s.inviteRepo(tx)

		taken, err := invRepo.HasConsumedSeat(ctx, teamID, targetPersonID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing seat")
		}
		if taken {
			return pkgerrors.New(pkgerrors.CodeConflict, "person already holds a seat")
		}

		current, err := invRepo.CountConsumedSeats(ctx, teamID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count seats")
		}
		if current >= int64(plan.Seats) {
			return pkgerrors.New(pkgerrors.CodeSeatCapacity, "seat capacity exceeded").
				WithDetails(map[string]int64{"current": current, "total": int64(plan.Seats)})
		}

		invite, err := invRepo.FindByTeamAndPerson(ctx, teamID, targetPersonID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "no accepted invite for this person")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invite")
		}
		if invite.Revoked(now) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "invite has been revoked")
		}

		if err := invRepo.MarkUsed(ctx, invite.ID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume seat")
		}

		metadata, _ := json.Marshal(map[string]string{"reason": "seat_assignment", "invite_id": invite.ID.String()})
		transfer, err := s.credits.TransferTx(ctx, tx, credits.TransferInput{
			TeamID:      teamID,
			PersonID:    targetPersonID,
			Amount:      int(plan.PerSeatAllotment),
			ActorUserID: actorUserID,
			Metadata:    metadata,
		})
		if err != nil {
			return err
		}

		result = AssignResult{
			InviteID:      invite.ID,
			PersonID:      targetPersonID,
			UsedAt:        now,
			Allotment:     int(plan.PerSeatAllotment),
			CounterpartID: transfer.Out.CounterpartID,
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSeatAssigned,
			AggregateType: enums.AggregateSeat,
			AggregateID:   invite.ID,
			Actor:         &outbox.ActorRef{UserID: actorUserID, TeamID: &teamID},
			Data: map[string]string{
				"team_id":   teamID.String(),
				"person_id": targetPersonID.String(),
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) Capacity(ctx context.Context, teamID uuid.UUID) (*CapacityDTO, error) {
	team, err := s.teamRepo(nil).FindByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "team not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load team")
	}

	total := 0
	if plan, err := billing.PlanForTier(team.SeatTier); err == nil {
		total = plan.Seats
	}
	current, err := s.inviteRepo(nil).CountConsumedSeats(ctx, teamID, time.Now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count seats")
	}
	return &CapacityDTO{Tier: team.SeatTier, Total: total, Current: int(current)}, nil
}
