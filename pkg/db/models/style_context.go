package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/teamshotspro/teamshots-backend/pkg/enums"
)

// StyleContext is a named, persisted photo-style configuration. Settings is a
// jsonb blob whose shape has drifted across releases; internal/styles owns
// decoding every historical form.
type StyleContext struct {
	ID        uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Scope     enums.CreditScope `gorm:"column:scope;type:credit_scope;not null"`
	TeamID    *uuid.UUID        `gorm:"column:team_id;type:uuid;index"`
	PersonID  *uuid.UUID        `gorm:"column:person_id;type:uuid;index"`
	Name      string            `gorm:"column:name;not null"`
	Settings  json.RawMessage   `gorm:"column:settings;type:jsonb;not null"`
	IsActive  bool              `gorm:"column:is_active;not null;default:false"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
