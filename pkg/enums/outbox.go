package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateGeneration OutboxAggregateType = "generation"
	AggregateTeam       OutboxAggregateType = "team"
	AggregateSeat       OutboxAggregateType = "seat"
	AggregateCredit     OutboxAggregateType = "credit"
	AggregateSelfie     OutboxAggregateType = "selfie"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateGeneration,
	AggregateTeam,
	AggregateSeat,
	AggregateCredit,
	AggregateSelfie,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventGenerationRequested OutboxEventType = "generation_requested"
	EventGenerationCompleted OutboxEventType = "generation_completed"
	EventGenerationFailed    OutboxEventType = "generation_failed"
	EventSeatAssigned        OutboxEventType = "seat_assigned"
	EventSeatRevoked         OutboxEventType = "seat_revoked"
	EventCreditsPurchased    OutboxEventType = "credits_purchased"
	EventTeamMemberInvited   OutboxEventType = "team_member_invited"
)

var validOutboxEventTypes = []OutboxEventType{
	EventGenerationRequested,
	EventGenerationCompleted,
	EventGenerationFailed,
	EventSeatAssigned,
	EventSeatRevoked,
	EventCreditsPurchased,
	EventTeamMemberInvited,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
