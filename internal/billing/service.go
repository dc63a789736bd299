package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/teamshotspro/teamshots-backend/pkg/config"
	"github.com/teamshotspro/teamshots-backend/pkg/db/models"
	"github.com/teamshotspro/teamshots-backend/pkg/enums"
	pkgerrors "github.com/teamshotspro/teamshots-backend/pkg/errors"
)

// Checkout metadata keys consumed by the webhook handler.
const (
	MetaKind     = "kind"
	MetaTeamID   = "team_id"
	MetaPersonID = "person_id"
	MetaTier     = "tier"
	MetaPackID   = "pack_id"

	KindSeatTier   = "seat_tier"
	KindCreditPack = "credit_pack"
)

// Service exposes pricing and Stripe checkout creation.
type Service interface {
	Pricing(ctx context.Context) *PricingDTO
	CreateTierCheckout(ctx context.Context, actorPersonID, teamID uuid.UUID, tier enums.SeatTier) (*CheckoutDTO, error)
	CreatePackCheckout(ctx context.Context, personID uuid.UUID, packID string) (*CheckoutDTO, error)
}

// PricingDTO is the public pricing table.
type PricingDTO struct {
	SeatTiers   []SeatTierPlan `json:"seat_tiers"`
	CreditPacks []CreditPack   `json:"credit_packs"`
}

// CheckoutDTO points the client at a Stripe-hosted checkout page.
type CheckoutDTO struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

type teamRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Team, error)
}

// ServiceParams bundles billing service dependencies.
type ServiceParams struct {
	Stripe   StripeCheckoutClient
	TeamRepo teamRepository
	Config   config.StripeConfig
}

type service struct {
	stripe   StripeCheckoutClient
	teamRepo teamRepository
	cfg      config.StripeConfig
}

// NewService builds the billing service.
func NewService(params ServiceParams) (Service, error) {
	if params.Stripe == nil {
		return nil, fmt.Errorf("stripe client required")
	}
	if params.TeamRepo == nil {
		return nil, fmt.Errorf("team repository required")
	}
	return &service{
		stripe:   params.Stripe,
		teamRepo: params.TeamRepo,
		cfg:      params.Config,
	}, nil
}

func (s *service) Pricing(ctx context.Context) *PricingDTO {
	return &PricingDTO{
		SeatTiers:   SeatTierPlans(),
		CreditPacks: CreditPacks(),
	}
}

func (s *service) CreateTierCheckout(ctx context.Context, actorPersonID, teamID uuid.UUID, tier enums.SeatTier) (*CheckoutDTO, error) {
	plan, err := PlanForTier(tier)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown seat tier")
	}

	team, err := s.teamRepo.FindByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "team not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load team")
	}
	if team.AdminID != actorPersonID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "team admin required")
	}

	name := fmt.Sprintf("TeamShots %s plan (%d seats)", plan.Tier, plan.Seats)
	params := s.baseParams(map[string]string{
		MetaKind:   KindSeatTier,
		MetaTeamID: teamID.String(),
		MetaTier:   string(plan.Tier),
	})
	params.LineItems = []*stripe.CheckoutSessionLineItemParams{lineItem(name, AmountCents(plan.Price))}

	return s.createSession(ctx, params)
}

func (s *service) CreatePackCheckout(ctx context.Context, personID uuid.UUID, packID string) (*CheckoutDTO, error) {
	pack, err := PackByID(packID)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("TeamShots credit pack (%d credits)", pack.Credits)
	params := s.baseParams(map[string]string{
		MetaKind:     KindCreditPack,
		MetaPersonID: personID.String(),
		MetaPackID:   pack.ID,
	})
	params.LineItems = []*stripe.CheckoutSessionLineItemParams{lineItem(name, AmountCents(pack.Price))}

	return s.createSession(ctx, params)
}

func (s *service) baseParams(metadata map[string]string) *stripe.CheckoutSessionParams {
	return &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.cfg.SuccessURL),
		CancelURL:  stripe.String(s.cfg.CancelURL),
		Metadata:   metadata,
	}
}

func (s *service) createSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*CheckoutDTO, error) {
	session, err := s.stripe.CreateSession(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}
	return &CheckoutDTO{SessionID: session.ID, URL: session.URL}, nil
}

func lineItem(name string, amountCents int64) *stripe.CheckoutSessionLineItemParams {
	return &stripe.CheckoutSessionLineItemParams{
		Quantity: stripe.Int64(1),
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripe.String(string(stripe.CurrencyUSD)),
			UnitAmount: stripe.Int64(amountCents),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(name),
			},
		},
	}
}
