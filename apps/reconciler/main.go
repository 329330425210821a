// Command reconciler runs one full reconciliation sweep and exits. It
// is the operational repair tool for aggregates that drifted from the
// ledger, safe to run while the API serves traffic.
package main

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Abolude524-collab/iSchkul-sub000/internal/badge"
	"github.com/Abolude524-collab/iSchkul-sub000/internal/clock"
	"github.com/Abolude524-collab/iSchkul-sub000/internal/config"
	"github.com/Abolude524-collab/iSchkul-sub000/internal/migration"
	"github.com/Abolude524-collab/iSchkul-sub000/internal/observability"
	"github.com/Abolude524-collab/iSchkul-sub000/internal/profile"
	"github.com/Abolude524-collab/iSchkul-sub000/internal/reconcile"
	reconciledomain "github.com/Abolude524-collab/iSchkul-sub000/internal/reconcile/domain"
	"github.com/Abolude524-collab/iSchkul-sub000/internal/xp"
	"github.com/Abolude524-collab/iSchkul-sub000/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		xp.Module,
		profile.Module,
		badge.Module,
		reconcile.Module,
		fx.Invoke(runSweep),
	)

	app.Run()
}

func runSweep(lc fx.Lifecycle, shutdowner fx.Shutdowner, log *zap.Logger, svc reconciledomain.Service) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer func() {
					_ = shutdowner.Shutdown()
				}()
				summary, err := svc.ReconcileAll(context.Background())
				if err != nil {
					log.Error("reconcile sweep failed", zap.Error(err))
					return
				}
				log.Info("reconcile sweep finished",
					zap.Int("scanned", summary.Scanned),
					zap.Int("corrected", summary.Corrected),
				)
			}()
			return nil
		},
	})
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(2)
	if err != nil {
		panic(err)
	}
	return node
}
