package xp

import (
	"github.com/Abolude524-collab/iSchkul-sub000/internal/xp/repository"
	"github.com/Abolude524-collab/iSchkul-sub000/internal/xp/service"
	"go.uber.org/fx"
)

var Module = fx.Module("xp",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
