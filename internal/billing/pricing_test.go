package billing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/teamshotspro/teamshots-backend/pkg/enums"
	pkgerrors "github.com/teamshotspro/teamshots-backend/pkg/errors"
)

func TestPlanForTier(t *testing.T) {
	plan, err := PlanForTier(enums.SeatTierGrowth)
	if err != nil {
		t.Fatalf("PlanForTier: %v", err)
	}
	if plan.Seats != 15 || plan.PerSeatAllotment != 50 {
		t.Fatalf("growth plan = %+v", plan)
	}

	_, err = PlanForTier(enums.SeatTierNone)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for tier none, got %v", err)
	}
}

func TestPackByID(t *testing.T) {
	pack, err := PackByID("pack_medium")
	if err != nil {
		t.Fatalf("PackByID: %v", err)
	}
	if pack.Credits != 60 {
		t.Fatalf("pack = %+v", pack)
	}

	_, err = PackByID("pack_unknown")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAmountCents(t *testing.T) {
	cases := []struct {
		price string
		want  int64
	}{
		{price: "99", want: 9900},
		{price: "14.99", want: 1499},
		{price: "39.99", want: 3999},
	}
	for _, tc := range cases {
		got := AmountCents(decimal.RequireFromString(tc.price))
		if got != tc.want {
			t.Fatalf("AmountCents(%s) = %d, want %d", tc.price, got, tc.want)
		}
	}
}

func TestTiersAreOrderedBySize(t *testing.T) {
	plans := SeatTierPlans()
	for i := 1; i < len(plans); i++ {
		if plans[i].Seats <= plans[i-1].Seats {
			t.Fatalf("tier %s does not grow seat count", plans[i].Tier)
		}
		if !plans[i].Price.GreaterThan(plans[i-1].Price) {
			t.Fatalf("tier %s does not grow price", plans[i].Tier)
		}
	}
}
