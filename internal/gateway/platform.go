// Package gateway reacts to platform events and admin commands. The
// chat platform itself stays behind narrow interfaces: the handlers see
// role identifiers and usage counters, never platform objects.
package gateway

import (
	"context"
	"time"
)

// Member is the platform-independent view of a community member the
// handlers operate on.
type Member struct {
	ID       int64
	Username string
	RoleIDs  []int64
	JoinedAt *time.Time
}

// RoleDirectory looks up a member's current role identifiers.
type RoleDirectory interface {
	MemberRoles(ctx context.Context, communityID, userID int64) ([]int64, error)
}

// RoleRemover strips roles from a member. Used by the paid-status
// removal admin command; ledger state is never touched by it.
type RoleRemover interface {
	RemoveRoles(ctx context.Context, communityID, userID int64, roleIDs []int64) error
}

// Welcome is the payload for a member-arrival notification. InviterID
// is zero when attribution was unknown.
type Welcome struct {
	CommunityName string
	MemberID      int64
	Username      string
	InviterID     int64
	JoinedAt      time.Time
}

// Commission is the payload for a commission-award notification.
// Amount is in minor units.
type Commission struct {
	InviterID   int64
	MemberID    int64
	Amount      int64
	OldTierName string
	NewTierName string
	OccurredAt  time.Time
}

// Notifier dispatches notification payloads to the presentation layer.
// Deliveries are best effort; failures are logged and never propagate.
type Notifier interface {
	NotifyWelcome(ctx context.Context, w Welcome) error
	NotifyCommission(ctx context.Context, c Commission) error
}
