package models

import (
	"time"

	"github.com/google/uuid"
)

// Person is a user's profile inside the product. TeamID is nullable: a person
// with no team generates on their own credit balance. Removal from a team
// nulls TeamID but keeps the historical invite row so the seat can be
// reactivated later.
type Person struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	TeamID         *uuid.UUID `gorm:"column:team_id;type:uuid;index"`
	DisplayName    string     `gorm:"column:display_name;not null"`
	AvatarSelfieID *uuid.UUID `gorm:"column:avatar_selfie_id;type:uuid"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
