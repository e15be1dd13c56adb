package service

import (
	"context"
	"errors"
	"sync"

	"github.com/ZRnown/commissionBot/internal/clock"
	invitedomain "github.com/ZRnown/commissionBot/internal/invite/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    invitedomain.Repository
	Fetcher invitedomain.UsageFetcher `optional:"true"`
	Issuer  invitedomain.LinkIssuer   `optional:"true"`
}

type Tracker struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    invitedomain.Repository
	fetcher invitedomain.UsageFetcher
	issuer  invitedomain.LinkIssuer

	mu        sync.Mutex
	snapshots map[int64]invitedomain.Snapshot
}

func NewTracker(p Params) invitedomain.Tracker {
	return &Tracker{
		db:        p.DB,
		log:       p.Log.Named("invite.tracker"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		fetcher:   p.Fetcher,
		issuer:    p.Issuer,
		snapshots: make(map[int64]invitedomain.Snapshot),
	}
}

func (t *Tracker) SnapshotFor(communityID int64) invitedomain.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := t.snapshots[communityID]
	out := make(invitedomain.Snapshot, len(snap))
	for code, uses := range snap {
		out[code] = uses
	}
	return out
}

// Refresh replaces the cached snapshot for the community. A permission
// failure clears the snapshot and returns no usages: attribution for the
// cycle degrades to unknown instead of failing the event.
func (t *Tracker) Refresh(ctx context.Context, communityID int64) ([]invitedomain.Usage, error) {
	if t.fetcher == nil {
		t.replace(communityID, nil)
		return nil, nil
	}

	usages, err := t.fetcher.ListInviteUsage(ctx, communityID)
	if err != nil {
		if errors.Is(err, invitedomain.ErrPermissionDenied) {
			t.log.Warn("missing permission to fetch invites; invite tracking disabled for cycle",
				zap.Int64("community_id", communityID))
			t.replace(communityID, nil)
			return nil, nil
		}
		t.log.Error("failed to refresh invites", zap.Int64("community_id", communityID), zap.Error(err))
		return nil, err
	}

	t.replace(communityID, usages)
	return usages, nil
}

func (t *Tracker) replace(communityID int64, usages []invitedomain.Usage) {
	snap := make(invitedomain.Snapshot, len(usages))
	for _, u := range usages {
		snap[u.Code] = u.Uses
	}
	t.mu.Lock()
	t.snapshots[communityID] = snap
	t.mu.Unlock()
}

// Attribute returns the first invite in platform order whose usage count
// strictly increased against the previous snapshot. Codes not present in
// the previous snapshot cannot attribute; simultaneous increments keep
// the platform's return order as the tie-break.
func (t *Tracker) Attribute(previous invitedomain.Snapshot, current []invitedomain.Usage) *invitedomain.Usage {
	for i := range current {
		prev, seen := previous[current[i].Code]
		if seen && current[i].Uses > prev {
			return &current[i]
		}
	}
	return nil
}

func (t *Tracker) ResolveInviter(ctx context.Context, used invitedomain.Usage) (int64, error) {
	ownerID, err := t.repo.OwnerByCode(ctx, t.db, used.Code)
	if err != nil {
		return 0, err
	}
	if ownerID != 0 {
		return ownerID, nil
	}

	if used.InviterID == 0 {
		return 0, nil
	}

	// Organically created invite: persist the code->owner mapping so the
	// next lookup resolves without platform metadata.
	rec := &invitedomain.Record{
		ID:        t.genID.Generate(),
		OwnerID:   used.InviterID,
		Code:      used.Code,
		URL:       used.URL,
		ChannelID: used.ChannelID,
		CreatedAt: t.clock.Now(),
		Active:    true,
	}
	if err := t.repo.InsertRecord(ctx, t.db, rec); err != nil {
		t.log.Error("failed to record organic invite mapping", zap.String("code", used.Code), zap.Error(err))
	}
	return used.InviterID, nil
}

// EnsureLink returns the owner's invite URL, creating one only when no
// stored link exists or the stored one is confirmed gone. Errors other
// than a confirmed missing invite trust the stored link, so a transient
// platform failure never mints a fresh invite.
func (t *Tracker) EnsureLink(ctx context.Context, communityID, ownerID, channelID int64) (string, error) {
	existing, err := t.repo.LinkByOwner(ctx, t.db, ownerID)
	if err != nil {
		return "", err
	}
	if existing == "" {
		latest, err := t.repo.LatestByOwner(ctx, t.db, ownerID)
		if err != nil {
			return "", err
		}
		if latest != nil {
			existing = latest.URL
		}
	}

	if existing != "" {
		if t.issuer == nil {
			return existing, nil
		}
		code := codeFromURL(existing)
		exists, err := t.issuer.InviteExists(ctx, communityID, code)
		if err != nil || exists {
			return existing, nil
		}
	}

	if t.issuer == nil {
		return "", invitedomain.ErrIssuerUnavailable
	}
	if channelID == 0 {
		return "", invitedomain.ErrNoChannel
	}

	created, err := t.issuer.CreateInvite(ctx, communityID, channelID)
	if err != nil {
		return "", err
	}
	if err := t.repo.SetLink(ctx, t.db, ownerID, created.URL); err != nil {
		return "", err
	}
	rec := &invitedomain.Record{
		ID:        t.genID.Generate(),
		OwnerID:   ownerID,
		Code:      created.Code,
		URL:       created.URL,
		ChannelID: channelID,
		CreatedAt: t.clock.Now(),
		Active:    true,
	}
	if err := t.repo.InsertRecord(ctx, t.db, rec); err != nil {
		t.log.Error("failed to record issued invite", zap.Int64("owner_id", ownerID), zap.Error(err))
	}

	if _, err := t.Refresh(ctx, communityID); err != nil {
		t.log.Warn("snapshot refresh after invite issue failed", zap.Error(err))
	}
	return created.URL, nil
}

func (t *Tracker) Deactivate(ctx context.Context, ownerID int64) error {
	return t.repo.DeactivateByOwner(ctx, t.db, ownerID)
}

func codeFromURL(url string) string {
	for i := len(url) - 1; i >= 0; i-- {
		if url[i] == '/' {
			return url[i+1:]
		}
	}
	return url
}
