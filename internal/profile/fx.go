package profile

import (
	"github.com/Abolude524-collab/iSchkul-sub000/internal/profile/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("profile",
	fx.Provide(repository.Provide),
)
