package billing

import (
	"github.com/shopspring/decimal"

	"github.com/teamshotspro/teamshots-backend/pkg/enums"
	pkgerrors "github.com/teamshotspro/teamshots-backend/pkg/errors"
)

// SeatTierPlan describes a purchasable seat tier. Prices are USD.
type SeatTierPlan struct {
	Tier             enums.SeatTier  `json:"tier"`
	Seats            int             `json:"seats"`
	PerSeatAllotment int64           `json:"per_seat_allotment"`
	Price            decimal.Decimal `json:"price"`
}

// CreditPack is an individually purchasable credit bundle for a person.
type CreditPack struct {
	ID      string          `json:"id"`
	Credits int64           `json:"credits"`
	Price   decimal.Decimal `json:"price"`
}

// Pricing is maintained by hand. Stripe products are created with inline
// price data from these figures, so the table is the single source of truth.
var seatTierPlans = []SeatTierPlan{
	{
		Tier:             enums.SeatTierStarter,
		Seats:            5,
		PerSeatAllotment: 40,
		Price:            decimal.NewFromInt(99),
	},
	{
		Tier:             enums.SeatTierGrowth,
		Seats:            15,
		PerSeatAllotment: 50,
		Price:            decimal.NewFromInt(249),
	},
	{
		Tier:             enums.SeatTierScale,
		Seats:            50,
		PerSeatAllotment: 60,
		Price:            decimal.NewFromInt(699),
	},
}

var creditPacks = []CreditPack{
	{ID: "pack_small", Credits: 20, Price: decimal.RequireFromString("14.99")},
	{ID: "pack_medium", Credits: 60, Price: decimal.RequireFromString("39.99")},
	{ID: "pack_large", Credits: 150, Price: decimal.RequireFromString("89.99")},
}

// SeatTierPlans returns the full tier table.
func SeatTierPlans() []SeatTierPlan {
	out := make([]SeatTierPlan, len(seatTierPlans))
	copy(out, seatTierPlans)
	return out
}

// CreditPacks returns the purchasable packs.
func CreditPacks() []CreditPack {
	out := make([]CreditPack, len(creditPacks))
	copy(out, creditPacks)
	return out
}

// PlanForTier resolves the plan backing a seat tier. SeatTierNone has no plan.
func PlanForTier(tier enums.SeatTier) (SeatTierPlan, error) {
	for _, plan := range seatTierPlans {
		if plan.Tier == tier {
			return plan, nil
		}
	}
	return SeatTierPlan{}, pkgerrors.New(pkgerrors.CodeStateConflict, "team has no purchased seat tier")
}

// PackByID resolves a credit pack.
func PackByID(id string) (CreditPack, error) {
	for _, pack := range creditPacks {
		if pack.ID == id {
			return pack, nil
		}
	}
	return CreditPack{}, pkgerrors.New(pkgerrors.CodeNotFound, "unknown credit pack")
}

// AmountCents converts a decimal USD price to the integer cents Stripe wants.
func AmountCents(price decimal.Decimal) int64 {
	return price.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
