// Package domain contains the persistence model for community members.
package domain

import (
	"time"
)

// Member is one community member as tracked by the ledger. The row is
// created on first observation and never deleted. RewardBalance is in
// minor units and never negative.
type Member struct {
	ID            int64     `gorm:"primaryKey;autoIncrement:false"`
	Username      string    `gorm:"type:text"`
	ReferredBy    *int64    `gorm:"index"`
	JoinedAt      time.Time `gorm:""`
	RewardBalance int64     `gorm:"not null;default:0"`
	RoleID        *int64    `gorm:""`
}

// TableName sets the database table name.
func (Member) TableName() string { return "members" }
