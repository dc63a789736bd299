package enums

import "fmt"

// SelfieStatus maps to the selfie_status enum in Postgres.
type SelfieStatus string

const (
	SelfieStatusPending  SelfieStatus = "pending"
	SelfieStatusUploaded SelfieStatus = "uploaded"
	SelfieStatusRejected SelfieStatus = "rejected"
)

var validSelfieStatuses = []SelfieStatus{
	SelfieStatusPending,
	SelfieStatusUploaded,
	SelfieStatusRejected,
}

// IsValid reports whether the value matches the canonical selfie enum.
func (s SelfieStatus) IsValid() bool {
	for _, candidate := range validSelfieStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSelfieStatus converts raw input into SelfieStatus.
func ParseSelfieStatus(value string) (SelfieStatus, error) {
	for _, candidate := range validSelfieStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid selfie status %q", value)
}
