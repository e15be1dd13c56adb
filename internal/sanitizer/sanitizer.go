// Package sanitizer enforces the no-self-referral invariant. Historical
// data can violate it (a member joining through their own stale invite),
// so the rule is repaired actively rather than enforced by a constraint.
package sanitizer

import (
	"context"

	ledgerdomain "github.com/ZRnown/commissionBot/internal/ledger/domain"
	memberdomain "github.com/ZRnown/commissionBot/internal/member/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("sanitizer",
	fx.Provide(New),
	fx.Invoke(func(s *Sanitizer) error {
		return s.PurgeGlobal(context.Background())
	}),
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Members memberdomain.Repository
}

type Sanitizer struct {
	db      *gorm.DB
	log     *zap.Logger
	members memberdomain.Repository
}

func New(p Params) *Sanitizer {
	return &Sanitizer{
		db:      p.DB,
		log:     p.Log.Named("sanitizer"),
		members: p.Members,
	}
}

// PurgeGlobal nulls every self-referral association and deletes every
// self-referral commission event. Run once at startup.
func (s *Sanitizer) PurgeGlobal(ctx context.Context) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.members.ClearSelfReferralAll(ctx, tx); err != nil {
			return err
		}
		return tx.WithContext(ctx).
			Where("inviter_id = referred_member_id").
			Delete(&ledgerdomain.ReferralEvent{}).Error
	})
	if err != nil {
		s.log.Error("global self-referral purge failed", zap.Error(err))
		return err
	}
	s.log.Info("purged self-referral associations and events")
	return nil
}

// PurgeForMember repairs one member's records. Called on every join and
// before every upgrade evaluation so a self-referral can never earn.
func (s *Sanitizer) PurgeForMember(ctx context.Context, memberID int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.members.ClearSelfReferral(ctx, tx, memberID); err != nil {
			return err
		}
		return tx.WithContext(ctx).
			Where("inviter_id = ? AND referred_member_id = ?", memberID, memberID).
			Delete(&ledgerdomain.ReferralEvent{}).Error
	})
	if err != nil {
		s.log.Error("self-referral purge failed", zap.Int64("member_id", memberID), zap.Error(err))
	}
	return err
}
