package invite

import (
	"github.com/ZRnown/commissionBot/internal/invite/repository"
	"github.com/ZRnown/commissionBot/internal/invite/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invite.tracker",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewTracker),
)
