package repository

import (
	"context"
	"errors"

	memberdomain "github.com/ZRnown/commissionBot/internal/member/domain"
	pkgdb "github.com/ZRnown/commissionBot/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() memberdomain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, up memberdomain.Upsert) error {
	existing, err := r.FindByID(ctx, db, up.ID)
	if err != nil {
		return err
	}

	if existing == nil {
		m := memberdomain.Member{ID: up.ID}
		if up.Username != nil {
			m.Username = *up.Username
		}
		m.ReferredBy = up.ReferredBy
		if up.JoinedAt != nil {
			m.JoinedAt = *up.JoinedAt
		}
		m.RoleID = up.RoleID
		err := db.WithContext(ctx).Create(&m).Error
		if err == nil || !pkgdb.IsDuplicateKeyErr(err) {
			return err
		}
		// A concurrent event created the row first; apply as update.
	}

	updates := map[string]any{}
	if up.Username != nil {
		updates["username"] = *up.Username
	}
	if up.ReferredBy != nil {
		updates["referred_by"] = *up.ReferredBy
	}
	if up.JoinedAt != nil {
		updates["joined_at"] = *up.JoinedAt
	}
	if up.RoleID != nil {
		updates["role_id"] = *up.RoleID
	}
	if len(updates) == 0 {
		return nil
	}
	return db.WithContext(ctx).Model(&memberdomain.Member{}).Where("id = ?", up.ID).Updates(updates).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*memberdomain.Member, error) {
	var m memberdomain.Member
	err := db.WithContext(ctx).First(&m, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *repo) UpdateRole(ctx context.Context, db *gorm.DB, id int64, roleID *int64) error {
	return db.WithContext(ctx).Model(&memberdomain.Member{}).Where("id = ?", id).Update("role_id", roleID).Error
}

// AdjustBalance applies delta to the member's balance, creating the row
// when absent. The balance is clamped at zero: a debit can never take it
// negative.
func (r *repo) AdjustBalance(ctx context.Context, db *gorm.DB, id int64, delta int64) (int64, error) {
	m, err := r.FindByID(ctx, db, id)
	if err != nil {
		return 0, err
	}
	if m == nil {
		m = &memberdomain.Member{ID: id}
		if err := db.WithContext(ctx).Create(m).Error; err != nil {
			if !pkgdb.IsDuplicateKeyErr(err) {
				return 0, err
			}
			if m, err = r.FindByID(ctx, db, id); err != nil {
				return 0, err
			}
		}
	}

	newBalance := m.RewardBalance + delta
	if newBalance < 0 {
		newBalance = 0
	}
	err = db.WithContext(ctx).Model(&memberdomain.Member{}).Where("id = ?", id).Update("reward_balance", newBalance).Error
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}

func (r *repo) ListPositiveBalance(ctx context.Context, db *gorm.DB) ([]memberdomain.Member, error) {
	var members []memberdomain.Member
	err := db.WithContext(ctx).
		Where("reward_balance > 0").
		Order("reward_balance DESC").
		Find(&members).Error
	return members, err
}

func (r *repo) ListReferredBy(ctx context.Context, db *gorm.DB, referrerID int64) ([]memberdomain.Member, error) {
	var members []memberdomain.Member
	err := db.WithContext(ctx).
		Where("referred_by = ?", referrerID).
		Order("joined_at DESC").
		Find(&members).Error
	return members, err
}

func (r *repo) ClearSelfReferralAll(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Model(&memberdomain.Member{}).
		Where("id = referred_by").
		Update("referred_by", nil).Error
}

func (r *repo) ClearSelfReferral(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Model(&memberdomain.Member{}).
		Where("id = ? AND referred_by = ?", id, id).
		Update("referred_by", nil).Error
}
