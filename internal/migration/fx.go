package migration

import (
	invitedomain "github.com/ZRnown/commissionBot/internal/invite/domain"
	ledgerdomain "github.com/ZRnown/commissionBot/internal/ledger/domain"
	memberdomain "github.com/ZRnown/commissionBot/internal/member/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(Run),
)

// Run creates or updates the schema at startup. The bot owns all five
// tables, so AutoMigrate over the models is the whole migration story.
func Run(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&memberdomain.Member{},
		&invitedomain.Link{},
		&invitedomain.Record{},
		&ledgerdomain.ReferralEvent{},
		&ledgerdomain.Payout{},
	)
}
