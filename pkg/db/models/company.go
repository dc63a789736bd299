package models

import (
	"time"

	"github.com/google/uuid"
)

// Company is the billing entity a team hangs off.
type Company struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name             string    `gorm:"column:name;not null"`
	BillingEmail     *string   `gorm:"column:billing_email"`
	StripeCustomerID *string   `gorm:"column:stripe_customer_id;uniqueIndex"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
