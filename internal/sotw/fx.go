package sotw

import (
	"github.com/Abolude524-collab/iSchkul-sub000/internal/sotw/repository"
	"github.com/Abolude524-collab/iSchkul-sub000/internal/sotw/service"
	"go.uber.org/fx"
)

var Module = fx.Module("sotw",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
