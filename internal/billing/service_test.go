package billing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/teamshotspro/teamshots-backend/pkg/config"
	"github.com/teamshotspro/teamshots-backend/pkg/db/models"
	"github.com/teamshotspro/teamshots-backend/pkg/enums"
	pkgerrors "github.com/teamshotspro/teamshots-backend/pkg/errors"
)

type stubStripe struct {
	params []*stripe.CheckoutSessionParams
	err    error
}

func (s *stubStripe) CreateSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.params = append(s.params, params)
	return &stripe.CheckoutSession{ID: "cs_test_123", URL: "https://checkout.stripe.com/c/cs_test_123"}, nil
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

func newBillingFixture(t *testing.T, team *models.Team) (Service, *stubStripe) {
	t.Helper()
	client := &stubStripe{}
	svc, err := NewService(ServiceParams{
		Stripe:   client,
		TeamRepo: &stubTeamRepo{team: team},
		Config: config.StripeConfig{
			SuccessURL: "https://app.teamshots.test/billing/success",
			CancelURL:  "https://app.teamshots.test/billing/cancel",
		},
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, client
}

func TestCreateTierCheckout(t *testing.T) {
	admin := uuid.New()
	team := &models.Team{ID: uuid.New(), Name: "Acme", AdminID: admin}
	svc, client := newBillingFixture(t, team)

	dto, err := svc.CreateTierCheckout(context.Background(), admin, team.ID, enums.SeatTierStarter)
	if err != nil {
		t.Fatalf("CreateTierCheckout: %v", err)
	}
	if dto.SessionID != "cs_test_123" || dto.URL == "" {
		t.Fatalf("dto = %+v", dto)
	}

	params := client.params[0]
	if params.Metadata[MetaKind] != KindSeatTier || params.Metadata[MetaTier] != "starter" {
		t.Fatalf("metadata = %+v", params.Metadata)
	}
	if params.Metadata[MetaTeamID] != team.ID.String() {
		t.Fatal("team id must ride along for the webhook")
	}
	if len(params.LineItems) != 1 {
		t.Fatal("expected one line item")
	}
	// Starter is $99.
	if got := *params.LineItems[0].PriceData.UnitAmount; got != 9900 {
		t.Fatalf("unit amount = %d", got)
	}
	if *params.SuccessURL == "" || *params.CancelURL == "" {
		t.Fatal("redirect urls required")
	}
}

func TestCreateTierCheckoutRequiresAdmin(t *testing.T) {
	team := &models.Team{ID: uuid.New(), Name: "Acme", AdminID: uuid.New()}
	svc, _ := newBillingFixture(t, team)

	_, err := svc.CreateTierCheckout(context.Background(), uuid.New(), team.ID, enums.SeatTierStarter)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCreatePackCheckout(t *testing.T) {
	svc, client := newBillingFixture(t, nil)
	personID := uuid.New()

	dto, err := svc.CreatePackCheckout(context.Background(), personID, "pack_small")
	if err != nil {
		t.Fatalf("CreatePackCheckout: %v", err)
	}
	if dto.SessionID == "" {
		t.Fatal("session id required")
	}

	params := client.params[0]
	if params.Metadata[MetaKind] != KindCreditPack || params.Metadata[MetaPackID] != "pack_small" {
		t.Fatalf("metadata = %+v", params.Metadata)
	}
	if params.Metadata[MetaPersonID] != personID.String() {
		t.Fatal("person id must ride along for the webhook")
	}

	_, err = svc.CreatePackCheckout(context.Background(), personID, "pack_unknown")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
