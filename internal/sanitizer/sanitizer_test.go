package sanitizer

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	ledgerdomain "github.com/ZRnown/commissionBot/internal/ledger/domain"
	memberdomain "github.com/ZRnown/commissionBot/internal/member/domain"
	memberrepo "github.com/ZRnown/commissionBot/internal/member/repository"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newSanitizer(t *testing.T) (*Sanitizer, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&memberdomain.Member{}, &ledgerdomain.ReferralEvent{}))

	s := New(Params{DB: db, Log: zap.NewNop(), Members: memberrepo.Provide()})
	return s, db
}

func ref(v int64) *int64 { return &v }

func seed(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Create(&memberdomain.Member{ID: 1, ReferredBy: ref(1)}).Error)
	require.NoError(t, db.Create(&memberdomain.Member{ID: 2, ReferredBy: ref(1)}).Error)
	require.NoError(t, db.Create(&memberdomain.Member{ID: 3, ReferredBy: ref(3)}).Error)

	now := time.Now()
	require.NoError(t, db.Create(&ledgerdomain.ReferralEvent{
		ID: 10, InviterID: 1, ReferredMemberID: 1, Amount: 100, OccurredAt: now,
	}).Error)
	require.NoError(t, db.Create(&ledgerdomain.ReferralEvent{
		ID: 11, InviterID: 1, ReferredMemberID: 2, Amount: 200, OccurredAt: now,
	}).Error)
	require.NoError(t, db.Create(&ledgerdomain.ReferralEvent{
		ID: 12, InviterID: 3, ReferredMemberID: 3, Amount: 300, OccurredAt: now,
	}).Error)
}

func TestPurgeGlobal(t *testing.T) {
	s, db := newSanitizer(t)
	seed(t, db)

	require.NoError(t, s.PurgeGlobal(context.Background()))

	var members []memberdomain.Member
	require.NoError(t, db.Order("id ASC").Find(&members).Error)
	require.Len(t, members, 3)
	assert.Nil(t, members[0].ReferredBy)
	require.NotNil(t, members[1].ReferredBy)
	assert.Equal(t, int64(1), *members[1].ReferredBy)
	assert.Nil(t, members[2].ReferredBy)

	var events []ledgerdomain.ReferralEvent
	require.NoError(t, db.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, int64(2), events[0].ReferredMemberID)
}

func TestPurgeForMember(t *testing.T) {
	s, db := newSanitizer(t)
	seed(t, db)

	require.NoError(t, s.PurgeForMember(context.Background(), 1))

	// only member 1 is repaired
	var m memberdomain.Member
	require.NoError(t, db.First(&m, "id = ?", 1).Error)
	assert.Nil(t, m.ReferredBy)
	m = memberdomain.Member{}
	require.NoError(t, db.First(&m, "id = ?", 3).Error)
	assert.NotNil(t, m.ReferredBy)

	var events []ledgerdomain.ReferralEvent
	require.NoError(t, db.Order("id ASC").Find(&events).Error)
	require.Len(t, events, 2)
	assert.Equal(t, int64(2), events[0].ReferredMemberID)
	assert.Equal(t, int64(3), events[1].ReferredMemberID)
}

func TestPurgeForMemberNoop(t *testing.T) {
	s, db := newSanitizer(t)
	require.NoError(t, db.Create(&memberdomain.Member{ID: 2, ReferredBy: ref(1)}).Error)

	require.NoError(t, s.PurgeForMember(context.Background(), 2))

	var m memberdomain.Member
	require.NoError(t, db.First(&m, "id = ?", 2).Error)
	require.NotNil(t, m.ReferredBy)
	assert.Equal(t, int64(1), *m.ReferredBy)
}
