package enums

import "fmt"

// OutboxDLQErrorReason maps to the outbox_dlq_error_reason_enum in Postgres.
type OutboxDLQErrorReason string

const (
	DLQReasonMaxAttempts    OutboxDLQErrorReason = "max_attempts_exceeded"
	DLQReasonPublishFailure OutboxDLQErrorReason = "publish_failure"
	DLQReasonInvalidPayload OutboxDLQErrorReason = "invalid_payload"
)

var validDLQReasons = []OutboxDLQErrorReason{
	DLQReasonMaxAttempts,
	DLQReasonPublishFailure,
	DLQReasonInvalidPayload,
}

// IsValid reports whether the value matches the canonical DLQ reason enum.
func (r OutboxDLQErrorReason) IsValid() bool {
	for _, candidate := range validDLQReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseOutboxDLQErrorReason converts raw input into OutboxDLQErrorReason.
func ParseOutboxDLQErrorReason(value string) (OutboxDLQErrorReason, error) {
	for _, candidate := range validDLQReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid dlq error reason %q", value)
}
