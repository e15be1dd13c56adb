// Package domain contains the commission ledger models and service
// contract.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ReferralEvent is one commission accrual. Rows are immutable except
// during settlement, where an event may be split into a settled portion
// and an unsettled remainder that preserve the original total.
type ReferralEvent struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	InviterID        int64        `gorm:"not null;index"`
	InviteCode       *string      `gorm:"type:text"`
	ReferredMemberID int64        `gorm:"not null;index"`
	OccurredAt       time.Time    `gorm:"not null"`
	Amount           int64        `gorm:"not null"`
	Settled          bool         `gorm:"not null;default:false"`
	TierRoleID       *int64       `gorm:"index"`
}

// TableName sets the database table name.
func (ReferralEvent) TableName() string { return "referral_events" }

// Payout is the append-only audit record of one settlement action.
type Payout struct {
	ID        snowflake.ID      `gorm:"primaryKey"`
	UserID    int64             `gorm:"not null;index"`
	Amount    int64             `gorm:"not null"`
	CreatedAt time.Time         `gorm:"not null"`
	Note      string            `gorm:"type:text"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb"`
}

// TableName sets the database table name.
func (Payout) TableName() string { return "payouts" }

// Stats is the commission summary for one inviter. Settlement splitting
// preserves sums, so Total is stable across settlements.
type Stats struct {
	Total     int64
	Settled   int64
	Unsettled int64
}
