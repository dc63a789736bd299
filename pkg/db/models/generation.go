package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	dbtypes "github.com/teamshotspro/teamshots-backend/pkg/db/types"
	"github.com/teamshotspro/teamshots-backend/pkg/enums"
)

// Generation records one headshot-generation request. SettingsSnapshot is the
// fully resolved style at request time, so later edits to the StyleContext do
// not change what the job rendered.
type Generation struct {
	ID               uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PersonID         uuid.UUID              `gorm:"column:person_id;type:uuid;not null;index"`
	TeamID           *uuid.UUID             `gorm:"column:team_id;type:uuid;index"`
	StyleContextID   uuid.UUID              `gorm:"column:style_context_id;type:uuid;not null"`
	SelfieIDs        dbtypes.UUIDArray      `gorm:"column:selfie_ids;type:uuid[];not null"`
	SettingsSnapshot json.RawMessage        `gorm:"column:settings_snapshot;type:jsonb;not null"`
	CreditsCharged   int                    `gorm:"column:credits_charged;not null"`
	Status           enums.GenerationStatus `gorm:"column:status;type:generation_status;not null;default:'queued'"`
	ResultKeys       pq.StringArray         `gorm:"column:result_keys;type:text[]"`
	FailureReason    *string                `gorm:"column:failure_reason"`
	CompletedAt      *time.Time             `gorm:"column:completed_at"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
