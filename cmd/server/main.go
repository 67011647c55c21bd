// Package main boots the learning service: HTTP API plus the outbox publisher.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	loader "github.com/bionicotaku/lingo-services-learning/internal/infrastructure/config_loader"
	loginfra "github.com/bionicotaku/lingo-services-learning/internal/infrastructure/logger"
	"github.com/bionicotaku/lingo-services-learning/internal/tasks/outbox"

	"github.com/bionicotaku/lingo-utils/observability"
	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport"
	khttp "github.com/go-kratos/kratos/v2/transport/http"

	_ "go.uber.org/automaxprocs"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name is the name of the compiled software.
	Name string
	// Version is the version of the compiled software.
	Version string

	id, _ = os.Hostname()
)

func newApp(logger log.Logger, meta loader.ServiceMetadata, hs *khttp.Server, task *outbox.Task) *kratos.App {
	servers := []transport.Server{hs}
	if task != nil {
		servers = append(servers, task)
	}
	return kratos.New(
		kratos.ID(id),
		kratos.Name(meta.Name),
		kratos.Version(meta.Version),
		kratos.Metadata(map[string]string{"environment": meta.Environment}),
		kratos.Logger(logger),
		kratos.Server(servers...),
	)
}

func main() {
	// Parse command-line flags (currently only -conf).
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	confPath, err := loader.ParseConfPath(fs, os.Args[1:])
	if err != nil {
		panic(err)
	}

	bundle, err := loader.Build(loader.Params{ConfPath: confPath, Name: Name, Version: Version})
	if err != nil {
		panic(err)
	}
	logCfg := bundle.Service.LoggerConfig()

	loggr, err := loginfra.NewLogger(logCfg)
	if err != nil {
		panic(err)
	}

	obsShutdown, err := observability.Init(context.Background(), bundle.ObsConfig,
		observability.WithLogger(loggr),
		observability.WithServiceName(logCfg.Service),
		observability.WithServiceVersion(logCfg.Version),
		observability.WithEnvironment(logCfg.Env),
	)
	if err != nil {
		panic(err)
	}
	defer func() {
		if obsShutdown == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := obsShutdown(ctx); err != nil {
			log.NewHelper(loggr).Warnf("shutdown observability: %v", err)
		}
	}()

	// Assemble all dependencies via Wire and create the Kratos app.
	app, cleanupApp, err := wireApp(context.Background(), bundle, loggr)
	if err != nil {
		panic(err)
	}
	defer cleanupApp()

	// Start the application and block until a stop signal is received.
	if err := app.Run(); err != nil {
		panic(err)
	}
}
