//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/astro-daily/internal/bootstrap"
	"github.com/yanqian/astro-daily/internal/infra/config"
	"github.com/yanqian/astro-daily/internal/interface/cli"
	"github.com/yanqian/astro-daily/pkg/logger"
)

func initializeDeps() (*cli.Deps, func(), error) {
	wire.Build(
		config.Load,
		logger.NewStderr,
		bootstrap.CoreSet,
		cli.NewDeps,
	)
	return nil, nil, nil
}
