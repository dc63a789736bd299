package models

import (
	"time"

	"github.com/google/uuid"
)

// TeamInvite is both the invitation and the seat record. UsedAt set means the
// seat is consumed. ExpiresAt bounds the acceptance window while the invite is
// pending; acceptance replaces it with an open-ended expiry, after which a
// past ExpiresAt only ever means an explicit revocation. Revocation past-dates
// ExpiresAt instead of deleting the row, which preserves the audit trail and
// allows reactivation.
type TeamInvite struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	TeamID          uuid.UUID  `gorm:"column:team_id;type:uuid;not null;index"`
	Email           string     `gorm:"column:email;not null"`
	PersonID        *uuid.UUID `gorm:"column:person_id;type:uuid;index"`
	Token           string     `gorm:"column:token;not null;uniqueIndex"`
	InvitedByUserID uuid.UUID  `gorm:"column:invited_by_user_id;type:uuid;not null"`
	ExpiresAt       time.Time  `gorm:"column:expires_at;not null"`
	UsedAt          *time.Time `gorm:"column:used_at"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// Consumed reports whether the invite represents an occupied seat.
func (i TeamInvite) Consumed() bool {
	return i.UsedAt != nil
}

// Revoked reports whether the invite has been soft-deleted by past-dating.
func (i TeamInvite) Revoked(now time.Time) bool {
	return i.ExpiresAt.Before(now)
}
