package leaderboard

import (
	"github.com/Abolude524-collab/iSchkul-sub000/internal/leaderboard/service"
	"go.uber.org/fx"
)

var Module = fx.Module("leaderboard",
	fx.Provide(service.NewService),
)
