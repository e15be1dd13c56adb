package gateway

import (
	"context"
	"time"

	"github.com/ZRnown/commissionBot/internal/clock"
	"github.com/ZRnown/commissionBot/internal/config"
	invitedomain "github.com/ZRnown/commissionBot/internal/invite/domain"
	ledgerdomain "github.com/ZRnown/commissionBot/internal/ledger/domain"
	memberdomain "github.com/ZRnown/commissionBot/internal/member/domain"
	obsmetrics "github.com/ZRnown/commissionBot/internal/observability/metrics"
	"github.com/ZRnown/commissionBot/internal/report"
	"github.com/ZRnown/commissionBot/internal/sanitizer"
	"github.com/ZRnown/commissionBot/internal/tier"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("gateway",
	fx.Provide(NewHandlers),
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	Config     config.Config
	Catalog    *tier.Catalog
	Tracker    invitedomain.Tracker
	Members    memberdomain.Repository
	Ledger     ledgerdomain.Service
	Sanitizer  *sanitizer.Sanitizer
	Report     *report.Service
	Roles      RoleDirectory       `optional:"true"`
	Remover    RoleRemover         `optional:"true"`
	Notifier   Notifier            `optional:"true"`
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Handlers struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	cfg        config.Config
	catalog    *tier.Catalog
	tracker    invitedomain.Tracker
	members    memberdomain.Repository
	ledger     ledgerdomain.Service
	sanitizer  *sanitizer.Sanitizer
	report     *report.Service
	roles      RoleDirectory
	remover    RoleRemover
	notifier   Notifier
	obsMetrics *obsmetrics.Metrics
	loc        *time.Location
}

func NewHandlers(p Params) *Handlers {
	loc, err := time.LoadLocation(p.Config.Timezone)
	if err != nil {
		p.Log.Warn("invalid timezone, falling back to UTC", zap.String("timezone", p.Config.Timezone))
		loc = time.UTC
	}
	return &Handlers{
		db:         p.DB,
		log:        p.Log.Named("gateway"),
		clock:      p.Clock,
		cfg:        p.Config,
		catalog:    p.Catalog,
		tracker:    p.Tracker,
		members:    p.Members,
		ledger:     p.Ledger,
		sanitizer:  p.Sanitizer,
		report:     p.Report,
		roles:      p.Roles,
		remover:    p.Remover,
		notifier:   p.Notifier,
		obsMetrics: p.ObsMetrics,
		loc:        loc,
	}
}

// OnMemberArrive attributes the arrival to an invite, stores the member
// with their referrer, and emits the welcome notification. No commission
// is awarded at join time; that happens on role upgrades.
func (h *Handlers) OnMemberArrive(ctx context.Context, communityID int64, m Member) error {
	previous := h.tracker.SnapshotFor(communityID)
	current, err := h.tracker.Refresh(ctx, communityID)
	if err != nil {
		// Attribution degrades to unknown; the join itself still counts.
		current = nil
	}

	var inviterID int64
	if used := h.tracker.Attribute(previous, current); used != nil {
		inviterID, err = h.tracker.ResolveInviter(ctx, *used)
		if err != nil {
			h.log.Error("inviter resolution failed", zap.String("code", used.Code), zap.Error(err))
			inviterID = 0
		}
	}
	if inviterID == m.ID {
		// A member arriving through their own link earns nobody anything.
		inviterID = 0
	}
	if inviterID != 0 {
		h.obsMetrics.RecordAttribution(ctx, "resolved")
		h.log.Info("inviter attributed", zap.Int64("member_id", m.ID), zap.Int64("inviter_id", inviterID))
	} else {
		h.obsMetrics.RecordAttribution(ctx, "unknown")
	}

	joinedAt := h.clock.Now()
	if m.JoinedAt != nil {
		joinedAt = *m.JoinedAt
	}
	joinedAt = joinedAt.In(h.loc)

	up := memberdomain.Upsert{
		ID:       m.ID,
		Username: &m.Username,
		JoinedAt: &joinedAt,
		RoleID:   h.catalog.HighestRole(m.RoleIDs),
	}
	if inviterID != 0 {
		up.ReferredBy = &inviterID
	}
	if err := h.members.Upsert(ctx, h.db, up); err != nil {
		h.log.Error("failed to store arriving member", zap.Int64("member_id", m.ID), zap.Error(err))
		return err
	}

	if err := h.sanitizer.PurgeForMember(ctx, m.ID); err != nil {
		return err
	}

	h.notifyWelcome(ctx, Welcome{
		CommunityName: h.cfg.CommunityDisplayName,
		MemberID:      m.ID,
		Username:      m.Username,
		InviterID:     inviterID,
		JoinedAt:      joinedAt,
	})
	return nil
}

// OnMemberDepart deactivates the departing member's invite records and
// refreshes the snapshot so their codes stop attributing.
func (h *Handlers) OnMemberDepart(ctx context.Context, communityID, userID int64) error {
	if err := h.tracker.Deactivate(ctx, userID); err != nil {
		h.log.Error("failed to deactivate invites", zap.Int64("user_id", userID), zap.Error(err))
		return err
	}
	if _, err := h.tracker.Refresh(ctx, communityID); err != nil {
		h.log.Warn("snapshot refresh after departure failed", zap.Error(err))
	}
	return nil
}

// OnRoleChange evaluates the member's tier transition and awards
// commission to their inviter on a qualifying upgrade. Safe to replay:
// the ledger's per-(member, tier) uniqueness makes re-delivery a no-op.
func (h *Handlers) OnRoleChange(ctx context.Context, communityID int64, before, after Member) error {
	if err := h.sanitizer.PurgeForMember(ctx, after.ID); err != nil {
		return err
	}

	upgrade := h.catalog.Evaluate(before.RoleIDs, after.RoleIDs)
	if upgrade == nil {
		return nil
	}

	tierRoleID := h.catalog.HighestRole(after.RoleIDs)
	if tierRoleID == nil {
		return nil
	}

	row, err := h.members.FindByID(ctx, h.db, after.ID)
	if err != nil {
		return err
	}
	if row == nil {
		return nil
	}

	if err := h.members.UpdateRole(ctx, h.db, after.ID, tierRoleID); err != nil {
		h.log.Error("failed to update member role", zap.Int64("member_id", after.ID), zap.Error(err))
	}

	if row.ReferredBy == nil || *row.ReferredBy == 0 {
		return nil
	}
	inviterID := *row.ReferredBy
	if inviterID == after.ID {
		return nil
	}

	var inviterRoles []int64
	if h.roles != nil {
		inviterRoles, err = h.roles.MemberRoles(ctx, communityID, inviterID)
		if err != nil {
			// Inviter not reachable: fall back to the basic-member rate.
			h.log.Warn("inviter roles unavailable", zap.Int64("inviter_id", inviterID), zap.Error(err))
			inviterRoles = nil
		}
	}

	amount, err := h.ledger.RecordUpgrade(ctx, ledgerdomain.RecordUpgradeRequest{
		InviterID:        inviterID,
		MemberID:         after.ID,
		Tier:             upgrade.After,
		TierRoleID:       *tierRoleID,
		IncrementalPrice: upgrade.IncrementalPrice,
		InviterRoles:     inviterRoles,
	})
	if err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}

	oldName := ""
	if t := h.catalog.Resolve(before.RoleIDs); t != nil {
		oldName = t.Name
	}
	h.notifyCommission(ctx, Commission{
		InviterID:   inviterID,
		MemberID:    after.ID,
		Amount:      amount,
		OldTierName: oldName,
		NewTierName: upgrade.After.Name,
		OccurredAt:  h.clock.Now().In(h.loc),
	})
	return nil
}

// Settle settles a user's accrued commission. A nil amount settles
// everything unsettled. Returns the amount actually settled, which may
// be less than requested.
func (h *Handlers) Settle(ctx context.Context, userID int64, amount *int64) (int64, error) {
	return h.ledger.Settle(ctx, userID, amount)
}

// RemovePaidStatus strips the member's paid roles on the platform.
// Ledger state is untouched: commission already accrued stays accrued.
func (h *Handlers) RemovePaidStatus(ctx context.Context, communityID, userID int64) ([]int64, error) {
	if h.roles == nil || h.remover == nil {
		return nil, nil
	}
	roleIDs, err := h.roles.MemberRoles(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}
	var paid []int64
	for _, roleID := range roleIDs {
		if h.catalog.ResolveRole(roleID) != nil {
			paid = append(paid, roleID)
		}
	}
	if len(paid) == 0 {
		return nil, nil
	}
	if err := h.remover.RemoveRoles(ctx, communityID, userID, paid); err != nil {
		return nil, err
	}
	return paid, nil
}

// QueryUserStats returns one user's commission summary.
func (h *Handlers) QueryUserStats(ctx context.Context, userID int64) (ledgerdomain.Stats, error) {
	return h.report.UserStats(ctx, userID)
}

// QueryLeaderboard returns all members holding positive balance.
func (h *Handlers) QueryLeaderboard(ctx context.Context) ([]report.Entry, error) {
	return h.report.Leaderboard(ctx)
}

func (h *Handlers) notifyWelcome(ctx context.Context, w Welcome) {
	if h.notifier == nil {
		return
	}
	if err := h.notifier.NotifyWelcome(ctx, w); err != nil {
		h.log.Error("failed to send welcome notification", zap.Int64("member_id", w.MemberID), zap.Error(err))
	}
}

func (h *Handlers) notifyCommission(ctx context.Context, c Commission) {
	if h.notifier == nil {
		return
	}
	if err := h.notifier.NotifyCommission(ctx, c); err != nil {
		h.log.Error("failed to send commission notification", zap.Int64("inviter_id", c.InviterID), zap.Error(err))
	}
}
