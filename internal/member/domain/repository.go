package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Upsert carries the fields observed for a member. Nil fields leave the
// stored value untouched so a later event cannot erase earlier data.
type Upsert struct {
	ID         int64
	Username   *string
	ReferredBy *int64
	JoinedAt   *time.Time
	RoleID     *int64
}

// Repository methods take the database handle explicitly so services can
// run them inside their own transactions.
type Repository interface {
	Upsert(ctx context.Context, db *gorm.DB, up Upsert) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Member, error)
	UpdateRole(ctx context.Context, db *gorm.DB, id int64, roleID *int64) error
	AdjustBalance(ctx context.Context, db *gorm.DB, id int64, delta int64) (int64, error)
	ListPositiveBalance(ctx context.Context, db *gorm.DB) ([]Member, error)
	ListReferredBy(ctx context.Context, db *gorm.DB, referrerID int64) ([]Member, error)
	ClearSelfReferralAll(ctx context.Context, db *gorm.DB) error
	ClearSelfReferral(ctx context.Context, db *gorm.DB, id int64) error
}
