package stripewebhook

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/teamshotspro/teamshots-backend/internal/billing"
	"github.com/teamshotspro/teamshots-backend/internal/credits"
	"github.com/teamshotspro/teamshots-backend/pkg/db/models"
	"github.com/teamshotspro/teamshots-backend/pkg/enums"
	"github.com/teamshotspro/teamshots-backend/pkg/outbox"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubTeamRepo struct {
	team       *models.Team
	tierSet    *enums.SeatTier
	activeSet  *bool
	activeTeam uuid.UUID
}

func (s *stubTeamRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	if s.team == nil || s.team.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *s.team
	return &copy, nil
}

func (s *stubTeamRepo) SetSeatTier(ctx context.Context, teamID uuid.UUID, tier enums.SeatTier) error {
	s.tierSet = &tier
	return nil
}

func (s *stubTeamRepo) SetSubscriptionActive(ctx context.Context, teamID uuid.UUID, active bool) error {
	s.activeSet = &active
	s.activeTeam = teamID
	return nil
}

type stubPersonRepo struct {
	persons map[uuid.UUID]*models.Person
}

func (s *stubPersonRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Person, error) {
	person, ok := s.persons[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *person
	return &copy, nil
}

type stubCredits struct {
	recorded []credits.RecordInput
}

func (s *stubCredits) RecordTx(ctx context.Context, tx *gorm.DB, input credits.RecordInput) (*models.CreditTransaction, error) {
	s.recorded = append(s.recorded, input)
	return &models.CreditTransaction{
		ID:       uuid.New(),
		Scope:    input.Scope,
		TeamID:   input.TeamID,
		PersonID: input.PersonID,
		Type:     input.Type,
		Amount:   input.Amount,
	}, nil
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type webhookFixture struct {
	svc     *Service
	teams   *stubTeamRepo
	persons *stubPersonRepo
	credits *stubCredits
	outbox  *stubOutbox
}

func newWebhookFixture(t *testing.T, team *models.Team, persons ...*models.Person) *webhookFixture {
	t.Helper()
	f := &webhookFixture{
		teams:   &stubTeamRepo{team: team},
		persons: &stubPersonRepo{persons: map[uuid.UUID]*models.Person{}},
		credits: &stubCredits{},
		outbox:  &stubOutbox{},
	}
	for _, p := range persons {
		f.persons.persons[p.ID] = p
	}
	svc, err := NewService(ServiceParams{
		TxRunner:          stubTxRunner{},
		TeamRepoFactory:   func(tx *gorm.DB) teamRepository { return f.teams },
		PersonRepoFactory: func(tx *gorm.DB) personRepository { return f.persons },
		Credits:           f.credits,
		Outbox:            f.outbox,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func checkoutEvent(t *testing.T, metadata map[string]string) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(&stripe.CheckoutSession{
		ID:       "cs_test_123",
		Metadata: metadata,
	})
	require.NoError(t, err)
	return &stripe.Event{
		ID:   "evt_" + uuid.NewString(),
		Type: stripe.EventTypeCheckoutSessionCompleted,
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestHandleTierPurchase(t *testing.T) {
	adminPerson := &models.Person{ID: uuid.New(), UserID: uuid.New()}
	team := &models.Team{ID: uuid.New(), Name: "Acme", AdminID: adminPerson.ID}
	f := newWebhookFixture(t, team, adminPerson)

	event := checkoutEvent(t, map[string]string{
		billing.MetaKind:   billing.KindSeatTier,
		billing.MetaTeamID: team.ID.String(),
		billing.MetaTier:   "growth",
	})
	require.NoError(t, f.svc.HandleEvent(context.Background(), event))

	require.Len(t, f.credits.recorded, 1)
	row := f.credits.recorded[0]
	require.Equal(t, enums.CreditScopeTeam, row.Scope)
	require.Equal(t, enums.CreditTxnPurchase, row.Type)
	// Growth is 15 seats at 50 credits each.
	require.Equal(t, 750, row.Amount)
	require.Equal(t, adminPerson.UserID, row.ActorUserID)

	require.NotNil(t, f.teams.tierSet)
	require.Equal(t, enums.SeatTierGrowth, *f.teams.tierSet)
	require.NotNil(t, f.teams.activeSet)
	require.True(t, *f.teams.activeSet)

	require.Len(t, f.outbox.events, 1)
	require.Equal(t, enums.EventCreditsPurchased, f.outbox.events[0].EventType)
}

func TestHandlePackPurchase(t *testing.T) {
	person := &models.Person{ID: uuid.New(), UserID: uuid.New()}
	f := newWebhookFixture(t, nil, person)

	event := checkoutEvent(t, map[string]string{
		billing.MetaKind:     billing.KindCreditPack,
		billing.MetaPersonID: person.ID.String(),
		billing.MetaPackID:   "pack_medium",
	})
	require.NoError(t, f.svc.HandleEvent(context.Background(), event))

	require.Len(t, f.credits.recorded, 1)
	row := f.credits.recorded[0]
	require.Equal(t, enums.CreditScopePerson, row.Scope)
	require.Equal(t, 60, row.Amount)
	require.Equal(t, person.UserID, row.ActorUserID)
	require.Len(t, f.outbox.events, 1)
}

func TestHandleCheckoutWithoutKindIsIgnored(t *testing.T) {
	f := newWebhookFixture(t, nil)

	event := checkoutEvent(t, map[string]string{"unrelated": "value"})
	require.NoError(t, f.svc.HandleEvent(context.Background(), event))
	require.Empty(t, f.credits.recorded)
	require.Empty(t, f.outbox.events)
}

func TestHandleCheckoutRejectsBadMetadata(t *testing.T) {
	f := newWebhookFixture(t, nil)

	cases := []map[string]string{
		{billing.MetaKind: billing.KindSeatTier, billing.MetaTeamID: "not-a-uuid", billing.MetaTier: "growth"},
		{billing.MetaKind: billing.KindSeatTier, billing.MetaTeamID: uuid.NewString(), billing.MetaTier: "platinum"},
		{billing.MetaKind: billing.KindCreditPack, billing.MetaPersonID: uuid.NewString(), billing.MetaPackID: "pack_unknown"},
	}
	for _, metadata := range cases {
		err := f.svc.HandleEvent(context.Background(), checkoutEvent(t, metadata))
		require.Error(t, err, "metadata %v", metadata)
	}
	require.Empty(t, f.credits.recorded)
}

func TestSubscriptionDeletedDeactivatesTeam(t *testing.T) {
	teamID := uuid.New()
	f := newWebhookFixture(t, nil)

	raw, err := json.Marshal(&stripe.Subscription{
		ID:       "sub_test",
		Status:   stripe.SubscriptionStatusCanceled,
		Metadata: map[string]string{billing.MetaTeamID: teamID.String()},
	})
	require.NoError(t, err)
	event := &stripe.Event{
		Type: stripe.EventTypeCustomerSubscriptionDeleted,
		Data: &stripe.EventData{Raw: raw},
	}

	require.NoError(t, f.svc.HandleEvent(context.Background(), event))
	require.NotNil(t, f.teams.activeSet)
	require.False(t, *f.teams.activeSet)
	require.Equal(t, teamID, f.teams.activeTeam)
}

func TestSubscriptionWithoutTeamMetadataIsIgnored(t *testing.T) {
	f := newWebhookFixture(t, nil)

	raw, err := json.Marshal(&stripe.Subscription{ID: "sub_test", Status: stripe.SubscriptionStatusActive})
	require.NoError(t, err)
	event := &stripe.Event{
		Type: stripe.EventTypeCustomerSubscriptionUpdated,
		Data: &stripe.EventData{Raw: raw},
	}

	require.NoError(t, f.svc.HandleEvent(context.Background(), event))
	require.Nil(t, f.teams.activeSet)
}

func TestUnhandledEventTypesAreAcknowledged(t *testing.T) {
	f := newWebhookFixture(t, nil)
	event := &stripe.Event{
		Type: stripe.EventTypePaymentIntentCreated,
		Data: &stripe.EventData{Raw: json.RawMessage(`{}`)},
	}
	require.NoError(t, f.svc.HandleEvent(context.Background(), event))
}

type stubWebhookStore struct {
	keys map[string]bool
	err  error
}

func (s *stubWebhookStore) WebhookEventKey(provider, eventID string) string {
	return "ts:webhook:" + provider + ":" + eventID
}

func (s *stubWebhookStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *stubWebhookStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.keys, key)
	}
	return nil
}

func TestIdempotencyGuard(t *testing.T) {
	store := &stubWebhookStore{keys: map[string]bool{}}
	guard, err := NewIdempotencyGuard(store, time.Hour, "stripe")
	require.NoError(t, err)

	seen, err := guard.CheckAndMark(context.Background(), "evt_1")
	require.NoError(t, err)
	require.False(t, seen)

	seen, err = guard.CheckAndMark(context.Background(), "evt_1")
	require.NoError(t, err)
	require.True(t, seen)

	require.NoError(t, guard.Release(context.Background(), "evt_1"))
	seen, err = guard.CheckAndMark(context.Background(), "evt_1")
	require.NoError(t, err)
	require.False(t, seen)
}
