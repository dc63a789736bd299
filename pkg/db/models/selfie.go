package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/teamshotspro/teamshots-backend/pkg/enums"
)

// Selfie is an uploaded reference photo stored in GCS by object key.
type Selfie struct {
	ID          uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PersonID    uuid.UUID          `gorm:"column:person_id;type:uuid;not null;index"`
	ObjectKey   string             `gorm:"column:object_key;not null;uniqueIndex"`
	ContentType string             `gorm:"column:content_type;not null"`
	SizeBytes   int64              `gorm:"column:size_bytes;not null;default:0"`
	Status      enums.SelfieStatus `gorm:"column:status;type:selfie_status;not null;default:'pending'"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
