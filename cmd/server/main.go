package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/fleetgame-go/internal/api"
	"github.com/mcoot/fleetgame-go/internal/config"
	"github.com/mcoot/fleetgame-go/internal/factory"
	"github.com/mcoot/fleetgame-go/internal/services/auth"
	redisstorage "github.com/mcoot/fleetgame-go/internal/storage/redis"
	"github.com/mcoot/fleetgame-go/internal/sweep"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	// Build factory config
	factoryCfg := factory.Config{
		AuthConfig:  auth.Config{SessionDuration: cfg.AuthSessionTTL},
		Logger:      logger,
		StorageType: cfg.StorageType,
	}
	if cfg.StorageType == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		factoryCfg.RedisConfig = &redisCfg
	}

	app, err := factory.New(factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	router := api.NewRouter(api.RouterConfig{
		Logger:          logger,
		AuthService:     app.AuthService,
		LobbyController: app.LobbyController,
		Engine:          app.Engine,
		MoveLog:         app.GameController,
		HubManager:      app.HubManager,
	})

	sched, err := sweep.Start(sweep.Config{
		Interval:    cfg.SweepInterval,
		IdleTimeout: cfg.SessionIdleTimeout,
	}, app.Engine, app.HubManager, app.AuthService, logger)
	if err != nil {
		logger.Error("failed to start sweeper", slog.String("error", err.Error()))
		os.Exit(1)
	}

	server := api.NewServer(router, api.DefaultServerConfig().WithPort(cfg.Port), logger)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.Int("port", cfg.Port),
		slog.String("storage", cfg.StorageType),
	)

	exitCode := 0
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			exitCode = 1
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			exitCode = 1
		}
	}

	if err := sched.Shutdown(); err != nil {
		logger.Warn("sweeper shutdown error", slog.String("error", err.Error()))
	}
	if err := app.Close(context.Background()); err != nil {
		logger.Warn("application shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
	os.Exit(exitCode)
}
