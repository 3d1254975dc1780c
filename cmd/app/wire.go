//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/astro-daily/internal/bootstrap"
	"github.com/yanqian/astro-daily/internal/infra/config"
	httpiface "github.com/yanqian/astro-daily/internal/interface/http"
	"github.com/yanqian/astro-daily/pkg/logger"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		bootstrap.CoreSet,
		bootstrap.ProvideWatcher,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
