package service

import (
	"context"

	"github.com/ZRnown/commissionBot/internal/clock"
	"github.com/ZRnown/commissionBot/internal/config"
	ledgerdomain "github.com/ZRnown/commissionBot/internal/ledger/domain"
	memberdomain "github.com/ZRnown/commissionBot/internal/member/domain"
	obsmetrics "github.com/ZRnown/commissionBot/internal/observability/metrics"
	"github.com/ZRnown/commissionBot/internal/tier"
	"github.com/ZRnown/commissionBot/pkg/money"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Config     config.Config
	Catalog    *tier.Catalog
	Members    memberdomain.Repository
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	cfg        config.Config
	catalog    *tier.Catalog
	members    memberdomain.Repository
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) ledgerdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("ledger.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		cfg:        p.Config,
		catalog:    p.Catalog,
		members:    p.Members,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) RecordUpgrade(ctx context.Context, req ledgerdomain.RecordUpgradeRequest) (int64, error) {
	if req.InviterID == 0 || req.MemberID == 0 {
		return 0, ledgerdomain.ErrInvalidUser
	}
	if req.InviterID == req.MemberID {
		return 0, nil
	}
	if req.Tier == nil || req.IncrementalPrice <= 0 {
		return 0, nil
	}

	percent := s.catalog.CommissionPercentFor(req.InviterRoles, s.cfg.AllowBasicInviter, s.cfg.BasicInviteCommission)
	if percent <= 0 {
		return 0, nil
	}
	amount := money.ApplyPercent(req.IncrementalPrice, percent)
	if amount <= 0 {
		return 0, nil
	}

	credited := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := s.hasReward(ctx, tx, req.MemberID, req.TierRoleID)
		if err != nil {
			return err
		}
		if exists {
			// Duplicate notification for a tier already rewarded.
			return nil
		}

		if _, err := s.members.AdjustBalance(ctx, tx, req.InviterID, amount); err != nil {
			return err
		}

		tierRoleID := req.TierRoleID
		event := ledgerdomain.ReferralEvent{
			ID:               s.genID.Generate(),
			InviterID:        req.InviterID,
			ReferredMemberID: req.MemberID,
			OccurredAt:       s.clock.Now(),
			Amount:           amount,
			Settled:          false,
			TierRoleID:       &tierRoleID,
		}
		if err := tx.WithContext(ctx).Create(&event).Error; err != nil {
			return err
		}
		credited = true
		return nil
	})
	if err != nil {
		return 0, err
	}
	if !credited {
		return 0, nil
	}

	s.obsMetrics.RecordCommissionEvent(ctx, req.Tier.Name)
	s.log.Info("commission awarded",
		zap.Int64("inviter_id", req.InviterID),
		zap.Int64("member_id", req.MemberID),
		zap.String("tier", req.Tier.Name),
		zap.String("amount", money.Format(amount)))
	return amount, nil
}

func (s *Service) Settle(ctx context.Context, userID int64, requested *int64) (int64, error) {
	if userID == 0 {
		return 0, ledgerdomain.ErrInvalidUser
	}
	if requested != nil && *requested < 0 {
		return 0, ledgerdomain.ErrInvalidAmount
	}

	var settledSum int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stats, err := s.stats(ctx, tx, userID)
		if err != nil {
			return err
		}

		budget := stats.Unsettled
		if requested != nil && *requested < budget {
			budget = *requested
		}
		if budget <= 0 {
			return nil
		}

		var events []ledgerdomain.ReferralEvent
		if err := tx.WithContext(ctx).
			Where("inviter_id = ? AND settled = ?", userID, false).
			Order("id ASC").
			Find(&events).Error; err != nil {
			return err
		}

		remaining := budget
		for _, ev := range events {
			if remaining <= 0 {
				break
			}
			take := ev.Amount
			if take > remaining {
				take = remaining
			}

			if take == ev.Amount {
				if err := tx.WithContext(ctx).Model(&ledgerdomain.ReferralEvent{}).
					Where("id = ?", ev.ID).
					Update("settled", true).Error; err != nil {
					return err
				}
			} else {
				// Split: shrink the event to the settled portion and append
				// the remainder as a fresh unsettled event. The remainder
				// carries no tier so the per-(member, tier) uniqueness of
				// accrual events stays intact.
				if err := tx.WithContext(ctx).Model(&ledgerdomain.ReferralEvent{}).
					Where("id = ?", ev.ID).
					Updates(map[string]any{"amount": take, "settled": true}).Error; err != nil {
					return err
				}
				remainder := ledgerdomain.ReferralEvent{
					ID:               s.genID.Generate(),
					InviterID:        ev.InviterID,
					InviteCode:       ev.InviteCode,
					ReferredMemberID: ev.ReferredMemberID,
					OccurredAt:       ev.OccurredAt,
					Amount:           ev.Amount - take,
					Settled:          false,
				}
				if err := tx.WithContext(ctx).Create(&remainder).Error; err != nil {
					return err
				}
			}

			remaining -= take
			settledSum += take
		}

		if settledSum <= 0 {
			return nil
		}

		payout := ledgerdomain.Payout{
			ID:        s.genID.Generate(),
			UserID:    userID,
			Amount:    settledSum,
			CreatedAt: s.clock.Now(),
			Note:      "manual settle",
		}
		if requested != nil {
			payout.Metadata = map[string]any{"requested": money.Format(*requested)}
		}
		if err := tx.WithContext(ctx).Create(&payout).Error; err != nil {
			return err
		}

		if _, err := s.members.AdjustBalance(ctx, tx, userID, -settledSum); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if settledSum > 0 {
		s.obsMetrics.RecordSettlement(ctx)
		s.log.Info("commission settled",
			zap.Int64("user_id", userID),
			zap.String("amount", money.Format(settledSum)))
	}
	return settledSum, nil
}

func (s *Service) Stats(ctx context.Context, userID int64) (ledgerdomain.Stats, error) {
	return s.stats(ctx, s.db, userID)
}

func (s *Service) stats(ctx context.Context, db *gorm.DB, userID int64) (ledgerdomain.Stats, error) {
	var total, settled int64
	err := db.WithContext(ctx).Model(&ledgerdomain.ReferralEvent{}).
		Where("inviter_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return ledgerdomain.Stats{}, err
	}
	err = db.WithContext(ctx).Model(&ledgerdomain.ReferralEvent{}).
		Where("inviter_id = ? AND settled = ?", userID, true).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&settled).Error
	if err != nil {
		return ledgerdomain.Stats{}, err
	}
	return ledgerdomain.Stats{Total: total, Settled: settled, Unsettled: total - settled}, nil
}

func (s *Service) HasReward(ctx context.Context, memberID, tierRoleID int64) (bool, error) {
	return s.hasReward(ctx, s.db, memberID, tierRoleID)
}

func (s *Service) hasReward(ctx context.Context, db *gorm.DB, memberID, tierRoleID int64) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&ledgerdomain.ReferralEvent{}).
		Where("referred_member_id = ? AND tier_role_id = ?", memberID, tierRoleID).
		Count(&count).Error
	return count > 0, err
}

func (s *Service) AdjustBalance(ctx context.Context, userID int64, delta int64) (int64, error) {
	if userID == 0 {
		return 0, ledgerdomain.ErrInvalidUser
	}
	var balance int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		balance, err = s.members.AdjustBalance(ctx, tx, userID, delta)
		return err
	})
	return balance, err
}

func (s *Service) RecentEvents(ctx context.Context, inviterID int64, limit int) ([]ledgerdomain.ReferralEvent, error) {
	if limit <= 0 {
		limit = 10
	}
	var events []ledgerdomain.ReferralEvent
	err := s.db.WithContext(ctx).
		Where("inviter_id = ?", inviterID).
		Order("id DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (s *Service) RecentPayouts(ctx context.Context, userID int64, limit int) ([]ledgerdomain.Payout, error) {
	if limit <= 0 {
		limit = 10
	}
	var payouts []ledgerdomain.Payout
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&payouts).Error
	return payouts, err
}
