package migration

import (
	"strings"

	"go.uber.org/fx"
	"gorm.io/gorm"

	badgedomain "github.com/Abolude524-collab/iSchkul-sub000/internal/badge/domain"
	"github.com/Abolude524-collab/iSchkul-sub000/internal/config"
	profiledomain "github.com/Abolude524-collab/iSchkul-sub000/internal/profile/domain"
	sotwdomain "github.com/Abolude524-collab/iSchkul-sub000/internal/sotw/domain"
	xpdomain "github.com/Abolude524-collab/iSchkul-sub000/internal/xp/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if strings.EqualFold(cfg.DBType, "postgres") {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}

		// mysql and sqlite (local development) derive the schema from
		// the models instead of the versioned postgres migrations.
		return conn.AutoMigrate(
			&xpdomain.XPEvent{},
			&profiledomain.UserProfile{},
			&badgedomain.Badge{},
			&sotwdomain.WeeklyWinner{},
		)
	}),
)
