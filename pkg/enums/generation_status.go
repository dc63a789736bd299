package enums

import "fmt"

// GenerationStatus maps to the generation_status enum in Postgres.
type GenerationStatus string

const (
	GenerationStatusQueued     GenerationStatus = "queued"
	GenerationStatusProcessing GenerationStatus = "processing"
	GenerationStatusCompleted  GenerationStatus = "completed"
	GenerationStatusFailed     GenerationStatus = "failed"
)

var validGenerationStatuses = []GenerationStatus{
	GenerationStatusQueued,
	GenerationStatusProcessing,
	GenerationStatusCompleted,
	GenerationStatusFailed,
}

// IsValid reports whether the value matches the canonical generation enum.
func (s GenerationStatus) IsValid() bool {
	for _, candidate := range validGenerationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a generation can no longer change state.
func (s GenerationStatus) IsTerminal() bool {
	return s == GenerationStatusCompleted || s == GenerationStatusFailed
}

// ParseGenerationStatus converts raw input into GenerationStatus.
func ParseGenerationStatus(value string) (GenerationStatus, error) {
	for _, candidate := range validGenerationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid generation status %q", value)
}
