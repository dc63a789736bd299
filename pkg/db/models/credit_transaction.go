package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/teamshotspro/teamshots-backend/pkg/enums"
)

// CreditTransaction is an immutable ledger row. Exactly one of TeamID or
// PersonID is set, matching Scope. Transfers write two rows sharing a
// CounterpartID; the pair sums to zero. Balances are always derived with
// SUM(amount), never stored.
type CreditTransaction struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Scope         enums.CreditScope   `gorm:"column:scope;type:credit_scope;not null"`
	TeamID        *uuid.UUID          `gorm:"column:team_id;type:uuid;index"`
	PersonID      *uuid.UUID          `gorm:"column:person_id;type:uuid;index"`
	Type          enums.CreditTxnType `gorm:"column:type;type:credit_txn_type;not null"`
	Amount        int                 `gorm:"column:amount;not null"`
	CounterpartID *uuid.UUID          `gorm:"column:counterpart_id;type:uuid;index"`
	ActorUserID   uuid.UUID           `gorm:"column:actor_user_id;type:uuid;not null"`
	Metadata      json.RawMessage     `gorm:"column:metadata;type:jsonb"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
}
