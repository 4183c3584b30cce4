package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/NeuralTrust/TrustRelay/pkg/config"
	"github.com/NeuralTrust/TrustRelay/pkg/dependency_container"
	infraLogger "github.com/NeuralTrust/TrustRelay/pkg/infra/logger"
	"github.com/NeuralTrust/TrustRelay/pkg/infra/prometheus"
	"github.com/NeuralTrust/TrustRelay/pkg/version"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, closeLogs, err := infraLogger.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer closeLogs()

	if cfg.Metrics.Enabled {
		prometheus.Initialize()
	}

	container, err := dependency_container.NewContainer(dependency_container.ContainerDI{
		Cfg:    cfg,
		Logger: logger,
	})
	if err != nil {
		logger.WithError(err).Error("failed to initialize dependencies")
		closeLogs()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	me, err := container.Bot.GetMe(ctx)
	if err != nil {
		logger.WithError(err).Error("failed to reach telegram")
		closeLogs()
		os.Exit(1)
	}
	logger.WithFields(logrus.Fields{
		"version":  version.Version,
		"username": me.Username,
	}).Info("relay bot starting")

	container.DispatchWorker.Start()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := container.Receiver.Run(gctx)
		// queued messages may still add album items, so drain after the workers
		container.DispatchWorker.Shutdown()
		container.Albums.Drain()
		return err
	})
	g.Go(func() error {
		container.Limiter.RunSweeper(gctx, cfg.Relay.SweepInterval)
		return nil
	})
	g.Go(func() error {
		return container.AdminServer.Run()
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		return container.AdminServer.Shutdown()
	})

	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("relay stopped with error")
		closeLogs()
		os.Exit(1)
	}
	logger.Info("relay gracefully stopped")
}
