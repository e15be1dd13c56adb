// Package report is the read-only facade presentation layers query.
package report

import (
	"context"

	invitedomain "github.com/ZRnown/commissionBot/internal/invite/domain"
	ledgerdomain "github.com/ZRnown/commissionBot/internal/ledger/domain"
	memberdomain "github.com/ZRnown/commissionBot/internal/member/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("report.service",
	fx.Provide(NewService),
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Members memberdomain.Repository
	Invites invitedomain.Repository
	Ledger  ledgerdomain.Service
}

// Entry is one leaderboard row: a member with positive balance and
// their commission summary.
type Entry struct {
	Member memberdomain.Member
	Stats  ledgerdomain.Stats
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	members memberdomain.Repository
	invites invitedomain.Repository
	ledger  ledgerdomain.Service
}

func NewService(p Params) *Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("report.service"),
		members: p.Members,
		invites: p.Invites,
		ledger:  p.Ledger,
	}
}

// Leaderboard lists members with positive balance, highest first.
func (s *Service) Leaderboard(ctx context.Context) ([]Entry, error) {
	members, err := s.members.ListPositiveBalance(ctx, s.db)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(members))
	for _, m := range members {
		stats, err := s.ledger.Stats(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Member: m, Stats: stats})
	}
	return entries, nil
}

// ReferredMembers lists the members a user brought in, newest first.
// Self-referral rows are filtered from display even before the
// sanitizer removes them from storage.
func (s *Service) ReferredMembers(ctx context.Context, userID int64) ([]memberdomain.Member, error) {
	members, err := s.members.ListReferredBy(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	out := members[:0]
	for _, m := range members {
		if m.ID == userID {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *Service) UserStats(ctx context.Context, userID int64) (ledgerdomain.Stats, error) {
	return s.ledger.Stats(ctx, userID)
}

func (s *Service) RecentEvents(ctx context.Context, userID int64, limit int) ([]ledgerdomain.ReferralEvent, error) {
	return s.ledger.RecentEvents(ctx, userID, limit)
}

func (s *Service) RecentPayouts(ctx context.Context, userID int64, limit int) ([]ledgerdomain.Payout, error) {
	return s.ledger.RecentPayouts(ctx, userID, limit)
}

// InviteURL returns the member's current invite link for display: the
// legacy slot first, the latest multi-invite record as fallback, empty
// when neither exists.
func (s *Service) InviteURL(ctx context.Context, userID int64) (string, error) {
	url, err := s.invites.LinkByOwner(ctx, s.db, userID)
	if err != nil {
		return "", err
	}
	if url != "" {
		return url, nil
	}
	latest, err := s.invites.LatestByOwner(ctx, s.db, userID)
	if err != nil {
		return "", err
	}
	if latest == nil {
		return "", nil
	}
	return latest.URL, nil
}
