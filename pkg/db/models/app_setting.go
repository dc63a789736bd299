package models

import (
	"encoding/json"
	"time"
)

// AppSetting is an admin-tunable key/value row.
type AppSetting struct {
	Key       string          `gorm:"column:key;primaryKey"`
	Value     json.RawMessage `gorm:"column:value;type:jsonb;not null"`
	UpdatedBy *string         `gorm:"column:updated_by"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
