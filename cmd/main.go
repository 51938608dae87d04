package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"

	"github.com/selivandex/spectrum-feed/internal/adapters/config"
	"github.com/selivandex/spectrum-feed/internal/api"
	"github.com/selivandex/spectrum-feed/internal/app"
	"github.com/selivandex/spectrum-feed/internal/health"
	"github.com/selivandex/spectrum-feed/internal/workers"
	"github.com/selivandex/spectrum-feed/pkg/logger"
	"github.com/selivandex/spectrum-feed/pkg/worker"
)

func main() {
	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := initConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("spectrum feed starting...",
		zap.String("addr", cfg.Server.Addr),
		zap.Strings("ai_providers", cfg.AI.EnabledProviders()),
		zap.String("news_provider", cfg.News.Provider),
	)

	application, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}

	hub := api.NewHub()
	application.Events.Add(hub)

	apiServer := api.NewServer(cfg.Server, application.Pipeline, application.Feed, hub)
	serverErr := make(chan error, 1)
	go func() {
		if err := apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	healthServer := startHealthServer(cfg, application)

	var scheduler *worker.Group
	if cfg.Scheduler.Enabled {
		scheduler = workers.NewScheduler(ctx, application.Pipeline, cfg.Scheduler)
		scheduler.Start()
		logger.Info("scheduler started", zap.Int("workers", scheduler.Len()))
	}

	healthServer.SetReady(true)
	logger.Info("✅ spectrum feed is ready")

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serverErr:
		logger.Error("api server failed", zap.Error(runErr))
	}

	if err := performGracefulShutdown(cfg, healthServer, apiServer, hub, scheduler, application); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// initConfig loads configuration and initializes logger
func initConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, nil
}

func startHealthServer(cfg *config.Config, application *app.App) *health.Server {
	healthServer := health.NewServer(strconv.Itoa(cfg.Health.Port), application.Checkers()...)

	go func() {
		if err := healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", zap.Error(err))
		}
	}()

	logger.Info("health server started", zap.Int("port", cfg.Health.Port))
	return healthServer
}

// performGracefulShutdown stops intake first, then workers, then connections
func performGracefulShutdown(
	cfg *config.Config,
	healthServer *health.Server,
	apiServer *api.Server,
	hub *api.Hub,
	scheduler *worker.Group,
	application *app.App,
) error {
	logger.Info("🛑 shutting down...")

	healthServer.SetReady(false)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	logger.Info("stopping api server...")
	if err := apiServer.Stop(shutdownCtx); err != nil {
		logger.Error("api server stop error", zap.Error(err))
	}
	hub.Close()

	if scheduler != nil {
		logger.Info("stopping scheduler...")
		scheduler.Stop(cfg.Scheduler.StopTimeout)
	}

	if err := application.Close(shutdownCtx); err != nil {
		logger.Error("close error", zap.Error(err))
	}

	logger.Info("stopping health server...")
	if err := healthServer.Stop(shutdownCtx); err != nil {
		logger.Error("health server stop error", zap.Error(err))
	}

	select {
	case <-shutdownCtx.Done():
		logger.Warn("⚠️ shutdown timeout exceeded")
		return fmt.Errorf("graceful shutdown timeout: %w", shutdownCtx.Err())
	default:
		logger.Info("✅ shutdown completed")
	}

	return nil
}
