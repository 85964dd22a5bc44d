package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mohammed-shakir/geoserver-catalog/internal/core/config"
	"github.com/mohammed-shakir/geoserver-catalog/internal/core/observability"
	"github.com/mohammed-shakir/geoserver-catalog/internal/core/server"
	"github.com/mohammed-shakir/geoserver-catalog/internal/gstest"
	"github.com/mohammed-shakir/geoserver-catalog/internal/logger"
	"github.com/mohammed-shakir/geoserver-catalog/internal/metrics"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "YAML config file layered over the environment")
	addr := flag.String("addr", "", "listen address, overrides ADDR")
	seed := flag.Bool("seed", false, "load the sample catalog")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fake-geoserver:", err)
		return 1
	}
	if *addr != "" {
		cfg.Fake.Addr = *addr
	}
	if *seed {
		cfg.Fake.Seed = true
	}
	cfg.Log.Component = "fake-geoserver"

	zl := logger.Build(cfg.Log, os.Stdout)
	appLog := logger.NewSlog(&zl)

	p := metrics.Init(metrics.Config{
		Build: metrics.BuildInfo{
			Version:   Version,
			Revision:  os.Getenv("BUILD_REVISION"),
			BuildDate: os.Getenv("BUILD_DATE"),
		},
	})
	if err := observability.Init(p.Registerer()); err != nil {
		appLog.Error("metrics setup failed", "err", err)
		return 1
	}

	fake := gstest.New(gstest.Options{
		Logger:           appLog,
		User:             cfg.GeoServer.User,
		Password:         cfg.GeoServer.Password,
		DefaultWorkspace: cfg.Fake.DefaultWorkspace,
		Seed:             cfg.Fake.Seed,
	})
	_, counts := fake.Readiness()
	appLog.Info("starting fake geoserver",
		"addr", cfg.Fake.Addr,
		"version", Version,
		"seed", cfg.Fake.Seed,
		"workspaces", counts["workspaces"])

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = server.Run(ctx, server.Options{
		Addr:    cfg.Fake.Addr,
		Logger:  appLog,
		Metrics: p,
		Ready:   fake,
	}, fake.Mount)
	if err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
