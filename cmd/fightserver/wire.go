//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"github.com/cory-johannsen/fightsim/internal/app"
	"github.com/cory-johannsen/fightsim/internal/config"
)

func initializeApplication(ctx context.Context, cfg config.Config) (*application, func(), error) {
	wire.Build(
		app.ProviderSet,
		provideFightServer,
		provideGRPCServer,
		newApplication,
	)
	return nil, nil, nil
}
