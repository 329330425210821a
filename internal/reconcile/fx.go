package reconcile

import (
	"github.com/Abolude524-collab/iSchkul-sub000/internal/reconcile/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reconcile",
	fx.Provide(service.NewService),
)
