package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	memberdomain "github.com/ZRnown/commissionBot/internal/member/domain"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&memberdomain.Member{}))
	return db
}

func strptr(s string) *string { return &s }
func i64ptr(v int64) *int64   { return &v }

func TestUpsertCreatesAndPreserves(t *testing.T) {
	db := newTestDB(t)
	r := Provide()
	ctx := context.Background()

	joined := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, r.Upsert(ctx, db, memberdomain.Upsert{
		ID:         1,
		Username:   strptr("alice"),
		ReferredBy: i64ptr(9),
		JoinedAt:   &joined,
	}))

	m, err := r.FindByID(ctx, db, 1)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "alice", m.Username)
	require.NotNil(t, m.ReferredBy)
	assert.Equal(t, int64(9), *m.ReferredBy)

	// nil fields leave stored values untouched
	require.NoError(t, r.Upsert(ctx, db, memberdomain.Upsert{
		ID:       1,
		Username: strptr("alice2"),
	}))
	m, err = r.FindByID(ctx, db, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice2", m.Username)
	require.NotNil(t, m.ReferredBy)
	assert.Equal(t, int64(9), *m.ReferredBy)
	assert.True(t, joined.Equal(m.JoinedAt))
}

func TestFindByIDMissing(t *testing.T) {
	db := newTestDB(t)
	r := Provide()

	m, err := r.FindByID(context.Background(), db, 404)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestAdjustBalance(t *testing.T) {
	db := newTestDB(t)
	r := Provide()
	ctx := context.Background()

	// creates the row when absent
	balance, err := r.AdjustBalance(ctx, db, 1, 300)
	require.NoError(t, err)
	assert.Equal(t, int64(300), balance)

	balance, err = r.AdjustBalance(ctx, db, 1, -100)
	require.NoError(t, err)
	assert.Equal(t, int64(200), balance)

	// debits never take the balance negative
	balance, err = r.AdjustBalance(ctx, db, 1, -9999)
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestListPositiveBalance(t *testing.T) {
	db := newTestDB(t)
	r := Provide()
	ctx := context.Background()

	require.NoError(t, db.Create(&memberdomain.Member{ID: 1, RewardBalance: 50}).Error)
	require.NoError(t, db.Create(&memberdomain.Member{ID: 2, RewardBalance: 0}).Error)
	require.NoError(t, db.Create(&memberdomain.Member{ID: 3, RewardBalance: 700}).Error)

	members, err := r.ListPositiveBalance(ctx, db)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, int64(3), members[0].ID)
	assert.Equal(t, int64(1), members[1].ID)
}

func TestClearSelfReferral(t *testing.T) {
	db := newTestDB(t)
	r := Provide()
	ctx := context.Background()

	require.NoError(t, db.Create(&memberdomain.Member{ID: 1, ReferredBy: i64ptr(1)}).Error)
	require.NoError(t, db.Create(&memberdomain.Member{ID: 2, ReferredBy: i64ptr(1)}).Error)
	require.NoError(t, db.Create(&memberdomain.Member{ID: 3, ReferredBy: i64ptr(3)}).Error)

	// per-member clear touches only that member
	require.NoError(t, r.ClearSelfReferral(ctx, db, 1))
	m, err := r.FindByID(ctx, db, 1)
	require.NoError(t, err)
	assert.Nil(t, m.ReferredBy)
	m, err = r.FindByID(ctx, db, 3)
	require.NoError(t, err)
	assert.NotNil(t, m.ReferredBy)

	// global sweep clears the rest, legitimate referrals untouched
	require.NoError(t, r.ClearSelfReferralAll(ctx, db))
	m, err = r.FindByID(ctx, db, 3)
	require.NoError(t, err)
	assert.Nil(t, m.ReferredBy)
	m, err = r.FindByID(ctx, db, 2)
	require.NoError(t, err)
	require.NotNil(t, m.ReferredBy)
	assert.Equal(t, int64(1), *m.ReferredBy)
}

func TestListReferredBy(t *testing.T) {
	db := newTestDB(t)
	r := Provide()
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&memberdomain.Member{ID: 2, ReferredBy: i64ptr(1), JoinedAt: base}).Error)
	require.NoError(t, db.Create(&memberdomain.Member{ID: 3, ReferredBy: i64ptr(1), JoinedAt: base.Add(time.Hour)}).Error)
	require.NoError(t, db.Create(&memberdomain.Member{ID: 4, ReferredBy: i64ptr(9), JoinedAt: base}).Error)

	members, err := r.ListReferredBy(ctx, db, 1)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, int64(3), members[0].ID)
	assert.Equal(t, int64(2), members[1].ID)
}
