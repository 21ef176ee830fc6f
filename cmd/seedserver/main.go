// Package main provides the seed server binary, which serves seed
// generation and the seed archive over HTTP.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dkrando/internal/config"
	"github.com/cory-johannsen/dkrando/internal/generator"
	"github.com/cory-johannsen/dkrando/internal/observability"
	"github.com/cory-johannsen/dkrando/internal/seedserver"
	"github.com/cory-johannsen/dkrando/internal/server"
	"github.com/cory-johannsen/dkrando/internal/storage/archive"
)

// version is set at build time.
var version = "dev"

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file; empty uses defaults and DKR_ env vars")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting seed server",
		zap.String("addr", cfg.HTTP.Addr()),
		zap.String("archive", cfg.Archive.Backend),
		zap.Bool("metrics", cfg.Metrics.Enabled),
	)

	metrics := observability.NopMetrics()
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		mp, shutdownMetrics, err := observability.InitProvider("dkrando-seedserver", version)
		if err != nil {
			logger.Fatal("initializing metrics", zap.Error(err))
		}
		defer func() { _ = shutdownMetrics(context.Background()) }()
		if metrics, err = observability.NewMetrics(mp); err != nil {
			logger.Fatal("creating metrics", zap.Error(err))
		}
		metricsHandler = promhttp.Handler()
	}

	genStart := time.Now()
	gen, closeHooks, err := generator.FromConfig(cfg, logger, metrics)
	if err != nil {
		logger.Fatal("creating generator", zap.Error(err))
	}
	defer closeHooks()
	logger.Info("generator ready", zap.Duration("elapsed", time.Since(genStart)))

	arch, closeArchive, err := archive.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("opening archive", zap.Error(err))
	}
	defer closeArchive()

	opts := []seedserver.Option{seedserver.WithMetrics(metrics)}
	if arch != nil {
		opts = append(opts, seedserver.WithArchive(arch))
	}
	api := seedserver.New(gen, logger, opts...)

	httpServer := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      api.Handler(metricsHandler),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("http", server.NewHTTPService(httpServer, cfg.HTTP.ShutdownTimeout, logger))

	logger.Info("seed server initialized", zap.Duration("startup", time.Since(start)))

	if err := lifecycle.Run(ctx); err != nil {
		logger.Error("seed server stopped", zap.Error(err))
	}
}
