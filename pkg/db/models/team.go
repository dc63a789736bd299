package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/teamshotspro/teamshots-backend/pkg/enums"
)

// Team represents the canonical tenant model. AdminID always points at the
// single person allowed to manage seats and styles; the application refuses
// to demote or remove them without a replacement.
type Team struct {
	ID                   uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name                 string         `gorm:"column:name;not null"`
	CompanyID            *uuid.UUID     `gorm:"column:company_id;type:uuid"`
	AdminID              uuid.UUID      `gorm:"column:admin_id;type:uuid;not null"`
	SeatTier             enums.SeatTier `gorm:"column:seat_tier;type:seat_tier;not null;default:'none'"`
	ActiveStyleContextID *uuid.UUID     `gorm:"column:active_style_context_id;type:uuid"`
	SubscriptionActive   bool           `gorm:"column:subscription_active;not null;default:false"`
	CreatedAt            time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
