package domain

import (
	"context"
	"errors"

	"github.com/ZRnown/commissionBot/internal/tier"
)

var (
	ErrInvalidUser   = errors.New("invalid_user")
	ErrInvalidAmount = errors.New("invalid_amount")
)

// RecordUpgradeRequest carries one qualifying tier upgrade. InviterRoles
// is the inviter's current role set: the commission rate is a property
// of the inviter's own status, not of the tier the invitee reached.
// TierRoleID is the role that conferred the reached tier and is the
// dedup key together with MemberID.
type RecordUpgradeRequest struct {
	InviterID        int64
	MemberID         int64
	Tier             *tier.Tier
	TierRoleID       int64
	IncrementalPrice int64
	InviterRoles     []int64
}

type Service interface {
	// RecordUpgrade credits the inviter and appends an unsettled event.
	// Returns the credited amount; zero (with nil error) for every
	// silent-skip path: self-referral, duplicate (member, tier) event,
	// zero rate, zero amount.
	RecordUpgrade(ctx context.Context, req RecordUpgradeRequest) (int64, error)
	// Settle marks accrued commission as paid, oldest events first,
	// splitting the last event when the budget does not cover it whole.
	// A nil requested amount settles everything unsettled; otherwise the
	// request is clamped to [0, unsettled]. Returns the amount actually
	// settled.
	Settle(ctx context.Context, userID int64, requested *int64) (int64, error)
	Stats(ctx context.Context, userID int64) (Stats, error)
	HasReward(ctx context.Context, memberID, tierRoleID int64) (bool, error)
	// AdjustBalance mutates the balance directly, bypassing the event
	// ledger. Floor-clamped at zero; creates the member row if absent.
	AdjustBalance(ctx context.Context, userID int64, delta int64) (int64, error)
	RecentEvents(ctx context.Context, inviterID int64, limit int) ([]ReferralEvent, error)
	RecentPayouts(ctx context.Context, userID int64, limit int) ([]Payout, error)
}
