// Package domain contains invite persistence models and the attribution
// tracker contract.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Link is the legacy single-slot invite URL per member. Kept for
// compatibility with data written before multi-invite records existed;
// lookups prefer it, writes keep both in sync.
type Link struct {
	OwnerID int64  `gorm:"primaryKey;autoIncrement:false"`
	URL     string `gorm:"type:text;column:link"`
}

// TableName sets the database table name.
func (Link) TableName() string { return "invites" }

// Record is one issued invite. Many records may exist per owner over
// time; the most recent active one is authoritative for code lookups.
type Record struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	OwnerID   int64        `gorm:"not null;index"`
	Code      string       `gorm:"type:text;not null;index"`
	URL       string       `gorm:"type:text"`
	ChannelID int64        `gorm:""`
	CreatedAt time.Time    `gorm:"not null"`
	ExpiresAt *time.Time   `gorm:""`
	MaxUses   int          `gorm:"not null;default:0"`
	Uses      int          `gorm:"not null;default:0"`
	Active    bool         `gorm:"not null;default:true"`
}

// TableName sets the database table name.
func (Record) TableName() string { return "invites_v2" }

// Usage is one invite as reported by the platform: its code, the usage
// counter, and whatever inviter metadata the platform exposes.
// InviterID is zero when the platform reports none.
type Usage struct {
	Code      string
	Uses      int
	InviterID int64
	ChannelID int64
	URL       string
}

// Snapshot maps invite code to the last observed usage count for one
// community.
type Snapshot map[string]int
