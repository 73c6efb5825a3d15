//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"SnakeKeeper/internal/biz"
	"SnakeKeeper/internal/conf"
	"SnakeKeeper/internal/data"
	"SnakeKeeper/internal/server"
	"SnakeKeeper/internal/service"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// wireApp init kratos application.
func wireApp(*conf.Game, *conf.Store, *conf.Marker, *conf.Data, *conf.Notify, *conf.Tasks, *conf.Schedule, *conf.Admin, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(
		data.ProviderSet,
		biz.ProviderSet,
		service.ProviderSet,
		server.ProviderSet,
		newApp,
	))
}

// wireAdmin init the services used by -once.
func wireAdmin(*conf.Game, *conf.Store, *conf.Marker, *conf.Data, *conf.Notify, *conf.Tasks, log.Logger) (*service.AdminService, func(), error) {
	panic(wire.Build(
		data.ProviderSet,
		biz.ProviderSet,
		service.ProviderSet,
	))
}
