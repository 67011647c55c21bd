//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"context"

	"github.com/bionicotaku/lingo-services-learning/internal/controllers"
	loader "github.com/bionicotaku/lingo-services-learning/internal/infrastructure/config_loader"
	"github.com/bionicotaku/lingo-services-learning/internal/infrastructure/database"
	httpserver "github.com/bionicotaku/lingo-services-learning/internal/infrastructure/http_server"
	"github.com/bionicotaku/lingo-services-learning/internal/infrastructure/messaging"
	"github.com/bionicotaku/lingo-services-learning/internal/repositories"
	"github.com/bionicotaku/lingo-services-learning/internal/services"
	"github.com/bionicotaku/lingo-services-learning/internal/tasks/outbox"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// wireApp init kratos application.
func wireApp(context.Context, *loader.Bundle, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(
		loader.ProviderSet,
		database.ProviderSet,
		messaging.ProviderSet,
		repositories.ProviderSet,
		services.ProviderSet,
		controllers.ProviderSet,
		httpserver.ProviderSet,
		outbox.ProviderSet,
		provideServiceConfig,
		provideBaseHandler,
		newApp,
	))
}
