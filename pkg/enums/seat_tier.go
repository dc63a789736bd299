package enums

import "fmt"

// SeatTier maps to the seat_tier enum in Postgres.
type SeatTier string

const (
	SeatTierNone    SeatTier = "none"
	SeatTierStarter SeatTier = "starter"
	SeatTierGrowth  SeatTier = "growth"
	SeatTierScale   SeatTier = "scale"
)

var validSeatTiers = []SeatTier{
	SeatTierNone,
	SeatTierStarter,
	SeatTierGrowth,
	SeatTierScale,
}

// IsValid reports whether the value matches the canonical seat tier enum.
func (t SeatTier) IsValid() bool {
	for _, candidate := range validSeatTiers {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseSeatTier converts raw input into SeatTier.
func ParseSeatTier(value string) (SeatTier, error) {
	for _, candidate := range validSeatTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid seat tier %q", value)
}
