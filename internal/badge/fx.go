package badge

import (
	"github.com/Abolude524-collab/iSchkul-sub000/internal/badge/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("badge",
	fx.Provide(repository.Provide),
)
