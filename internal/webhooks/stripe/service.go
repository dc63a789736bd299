package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/teamshotspro/teamshots-backend/internal/billing"
	"github.com/teamshotspro/teamshots-backend/internal/credits"
	"github.com/teamshotspro/teamshots-backend/pkg/db/models"
	"github.com/teamshotspro/teamshots-backend/pkg/enums"
	pkgerrors "github.com/teamshotspro/teamshots-backend/pkg/errors"
	"github.com/teamshotspro/teamshots-backend/pkg/logger"
	"github.com/teamshotspro/teamshots-backend/pkg/outbox"
)

type teamRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Team, error)
	SetSeatTier(ctx context.Context, teamID uuid.UUID, tier enums.SeatTier) error
	SetSubscriptionActive(ctx context.Context, teamID uuid.UUID, active bool) error
}

type personRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Person, error)
}

type creditRecorder interface {
	RecordTx(ctx context.Context, tx *gorm.DB, input credits.RecordInput) (*models.CreditTransaction, error)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams bundles webhook handler dependencies. Repo factories bind to
// the transaction the handler opens per event.
type ServiceParams struct {
	TxRunner          txRunner
	TeamRepoFactory   func(tx *gorm.DB) teamRepository
	PersonRepoFactory func(tx *gorm.DB) personRepository
	Credits           creditRecorder
	Outbox            outboxEmitter
	Logger            *logger.Logger
}

// Service applies Stripe events to the ledger and team state. Callers are
// expected to have verified the event signature and passed the idempotency
// guard before handing the event over.
type Service struct {
	txRunner   txRunner
	teamRepo   func(tx *gorm.DB) teamRepository
	personRepo func(tx *gorm.DB) personRepository
	credits    creditRecorder
	outbox     outboxEmitter
	logg       *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.TeamRepoFactory == nil || params.PersonRepoFactory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "repo factories required")
	}
	if params.Credits == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "credits service required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox service required")
	}
	return &Service{
		txRunner:   params.TxRunner,
		teamRepo:   params.TeamRepoFactory,
		personRepo: params.PersonRepoFactory,
		credits:    params.Credits,
		outbox:     params.Outbox,
		logg:       params.Logger,
	}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout session")
		}
		return s.handleCheckoutCompleted(ctx, &session)
	case stripe.EventTypeCustomerSubscriptionUpdated,
		stripe.EventTypeCustomerSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode subscription event")
		}
		return s.syncSubscription(ctx, &sub)
	default:
		return nil
	}
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, session *stripe.CheckoutSession) error {
	switch session.Metadata[billing.MetaKind] {
	case billing.KindSeatTier:
		return s.applyTierPurchase(ctx, session)
	case billing.KindCreditPack:
		return s.applyPackPurchase(ctx, session)
	default:
		// Sessions created outside this backend carry no kind marker.
		if s.logg != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"session_id": session.ID,
			}), "checkout session without purchase metadata, skipping")
		}
		return nil
	}
}

func (s *Service) applyTierPurchase(ctx context.Context, session *stripe.CheckoutSession) error {
	teamID, err := uuid.Parse(session.Metadata[billing.MetaTeamID])
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "checkout metadata has no valid team id")
	}
	tier := enums.SeatTier(session.Metadata[billing.MetaTier])
	plan, err := billing.PlanForTier(tier)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "checkout metadata has no valid seat tier")
	}

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		teams := s.teamRepo(tx)
		team, err := teams.FindByID(ctx, teamID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "team not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load team")
		}
		admin, err := s.personRepo(tx).FindByID(ctx, team.AdminID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load team admin")
		}

		amount := plan.PerSeatAllotment * int64(plan.Seats)
		metadata, _ := json.Marshal(map[string]string{
			"reason":            "seat_tier_purchase",
			"tier":              string(plan.Tier),
			"stripe_session_id": session.ID,
		})
		id := teamID
		txn, err := s.credits.RecordTx(ctx, tx, credits.RecordInput{
			Scope:       enums.CreditScopeTeam,
			TeamID:      &id,
			Type:        enums.CreditTxnPurchase,
			Amount:      int(amount),
			ActorUserID: admin.UserID,
			Metadata:    metadata,
		})
		if err != nil {
			return err
		}

		if err := teams.SetSeatTier(ctx, teamID, plan.Tier); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set seat tier")
		}
		if err := teams.SetSubscriptionActive(ctx, teamID, true); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "activate subscription")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCreditsPurchased,
			AggregateType: enums.AggregateCredit,
			AggregateID:   txn.ID,
			Actor:         &outbox.ActorRef{UserID: admin.UserID, TeamID: &id, Role: "admin"},
			Data: map[string]any{
				"scope":   enums.CreditScopeTeam,
				"team_id": teamID,
				"tier":    plan.Tier,
				"amount":  amount,
			},
			Version:    1,
			OccurredAt: time.Now(),
		})
	})
}

func (s *Service) applyPackPurchase(ctx context.Context, session *stripe.CheckoutSession) error {
	personID, err := uuid.Parse(session.Metadata[billing.MetaPersonID])
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "checkout metadata has no valid person id")
	}
	pack, err := billing.PackByID(session.Metadata[billing.MetaPackID])
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "checkout metadata has no valid credit pack")
	}

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		person, err := s.personRepo(tx).FindByID(ctx, personID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "person not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load person")
		}

		metadata, _ := json.Marshal(map[string]string{
			"reason":            "credit_pack_purchase",
			"pack_id":           pack.ID,
			"stripe_session_id": session.ID,
		})
		id := personID
		txn, err := s.credits.RecordTx(ctx, tx, credits.RecordInput{
			Scope:       enums.CreditScopePerson,
			PersonID:    &id,
			Type:        enums.CreditTxnPurchase,
			Amount:      int(pack.Credits),
			ActorUserID: person.UserID,
			Metadata:    metadata,
		})
		if err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCreditsPurchased,
			AggregateType: enums.AggregateCredit,
			AggregateID:   txn.ID,
			Actor:         &outbox.ActorRef{UserID: person.UserID, TeamID: person.TeamID, Role: "member"},
			Data: map[string]any{
				"scope":     enums.CreditScopePerson,
				"person_id": personID,
				"pack_id":   pack.ID,
				"amount":    pack.Credits,
			},
			Version:    1,
			OccurredAt: time.Now(),
		})
	})
}

// syncSubscription toggles the team flag from subscription lifecycle events.
// Sessions are one-time payments, but teams renewed through Stripe-hosted
// subscriptions report cancellation this way.
func (s *Service) syncSubscription(ctx context.Context, sub *stripe.Subscription) error {
	teamIDRaw := sub.Metadata[billing.MetaTeamID]
	if teamIDRaw == "" {
		return nil
	}
	teamID, err := uuid.Parse(teamIDRaw)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription metadata has no valid team id")
	}

	active := sub.Status == stripe.SubscriptionStatusActive || sub.Status == stripe.SubscriptionStatusTrialing
	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.teamRepo(tx).SetSubscriptionActive(ctx, teamID, active); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "toggle subscription flag")
		}
		return nil
	})
}
