package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/Abolude524-collab/iSchkul-sub000/internal/clock"
	"github.com/Abolude524-collab/iSchkul-sub000/internal/config"
	"github.com/Abolude524-collab/iSchkul-sub000/internal/migration"
	"github.com/Abolude524-collab/iSchkul-sub000/internal/observability"
	"github.com/Abolude524-collab/iSchkul-sub000/internal/scheduler"
	"github.com/Abolude524-collab/iSchkul-sub000/internal/server"
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
		server.Module,
		scheduler.Module,
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
