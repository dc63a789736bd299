package models

import (
	"time"

	"github.com/google/uuid"
)

// Feedback stores a user-submitted report with the page it came from.
type Feedback struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PersonID  uuid.UUID `gorm:"column:person_id;type:uuid;not null;index"`
	Category  string    `gorm:"column:category;not null"`
	Message   string    `gorm:"column:message;not null"`
	Page      *string   `gorm:"column:page"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
