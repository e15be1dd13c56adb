package main

import (
	"github.com/ZRnown/commissionBot/internal/clock"
	"github.com/ZRnown/commissionBot/internal/config"
	"github.com/ZRnown/commissionBot/internal/gateway"
	"github.com/ZRnown/commissionBot/internal/invite"
	"github.com/ZRnown/commissionBot/internal/ledger"
	"github.com/ZRnown/commissionBot/internal/member"
	"github.com/ZRnown/commissionBot/internal/migration"
	"github.com/ZRnown/commissionBot/internal/observability"
	"github.com/ZRnown/commissionBot/internal/report"
	"github.com/ZRnown/commissionBot/internal/sanitizer"
	"github.com/ZRnown/commissionBot/internal/tier"
	"github.com/ZRnown/commissionBot/pkg/db"
	"github.com/ZRnown/commissionBot/pkg/log"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		log.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Domains
		tier.Module,
		member.Module,
		invite.Module,
		ledger.Module,
		sanitizer.Module,
		report.Module,
		gateway.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
