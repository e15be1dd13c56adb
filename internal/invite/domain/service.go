package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrPermissionDenied marks an invite-list fetch the platform
	// refused. Non-fatal: attribution degrades to unknown for that cycle.
	ErrPermissionDenied  = errors.New("permission_denied")
	ErrNoChannel         = errors.New("no_invite_channel")
	ErrIssuerUnavailable = errors.New("invite_issuer_unavailable")
)

// UsageFetcher lists current invite usage for a community. Implemented
// by the platform gateway.
type UsageFetcher interface {
	ListInviteUsage(ctx context.Context, communityID int64) ([]Usage, error)
}

// LinkIssuer creates permanent invites and checks whether a code still
// exists on the platform. Implemented by the platform gateway.
type LinkIssuer interface {
	CreateInvite(ctx context.Context, communityID, channelID int64) (Usage, error)
	InviteExists(ctx context.Context, communityID int64, code string) (bool, error)
}

// Tracker maintains per-community usage snapshots and resolves which
// invite a new arrival consumed.
type Tracker interface {
	// SnapshotFor returns a copy of the cached snapshot for a community.
	SnapshotFor(communityID int64) Snapshot
	// Refresh fetches current usage and replaces the cached snapshot,
	// even with an empty result, so stale state cannot persist.
	Refresh(ctx context.Context, communityID int64) ([]Usage, error)
	// Attribute picks the first invite whose usage strictly increased.
	Attribute(previous Snapshot, current []Usage) *Usage
	// ResolveInviter maps a used invite to its owner: recorded mapping
	// first, platform-reported inviter second. Zero when unknown.
	ResolveInviter(ctx context.Context, used Usage) (int64, error)
	// EnsureLink returns the member's valid invite URL, issuing one only
	// when none exists or the existing one is confirmed gone.
	EnsureLink(ctx context.Context, communityID, ownerID, channelID int64) (string, error)
	// Deactivate marks a departing member's invite records inactive.
	Deactivate(ctx context.Context, ownerID int64) error
}

// Repository persists invite links and records. Methods take the
// database handle explicitly.
type Repository interface {
	InsertRecord(ctx context.Context, db *gorm.DB, rec *Record) error
	LatestByOwner(ctx context.Context, db *gorm.DB, ownerID int64) (*Record, error)
	OwnerByCode(ctx context.Context, db *gorm.DB, code string) (int64, error)
	DeactivateByOwner(ctx context.Context, db *gorm.DB, ownerID int64) error
	SetLink(ctx context.Context, db *gorm.DB, ownerID int64, url string) error
	LinkByOwner(ctx context.Context, db *gorm.DB, ownerID int64) (string, error)
}
