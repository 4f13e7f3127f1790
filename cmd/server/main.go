package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/chessduel/internal/api"
	"github.com/mcoot/chessduel/internal/config"
	"github.com/mcoot/chessduel/internal/factory"
	"github.com/mcoot/chessduel/internal/services/phase"
	pgstorage "github.com/mcoot/chessduel/internal/storage/postgres"
	redisstorage "github.com/mcoot/chessduel/internal/storage/redis"
)

func main() {
	conf, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: conf.LogLevel,
	}))
	slog.SetDefault(logger)

	cfg := factory.Config{
		Logger:      logger,
		StorageType: conf.StorageType,
		NATSURL:     conf.NATSURL,
		PhaseConfig: phase.Config{
			PreGameDuration:  conf.PreGameDuration,
			PostGameDuration: conf.PostGameDuration,
		},
		AllowedOrigins: conf.AllowedOrigins,
	}

	switch conf.StorageType {
	case config.StorageRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = conf.RedisURL
		cfg.RedisConfig = &redisCfg
	case config.StoragePostgres:
		cfg.PostgresConfig = &pgstorage.Config{URL: conf.DatabaseURL}
	}

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := factory.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	router := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		Rooms:       app.Manager,
		MoveLog:     app.Storage,
		WebSocket:   app.WebSocket,
		Connections: app.Hub,
	})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = conf.Host
	serverConfig.Port = conf.Port
	server := api.NewServer(router, serverConfig, logger)
	server.OnShutdown(app.Hub.Close)
	if err := server.Listen(); err != nil {
		logger.Error("failed to listen", slog.String("error", err.Error()))
		_ = app.Close()
		os.Exit(1)
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", conf.StorageType))

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

	// Drains pending move writes before the store closes
	if err := app.Close(); err != nil {
		logger.Error("failed to close application", slog.String("error", err.Error()))
		exitCode = 1
	}

	logger.Info("server stopped")
	os.Exit(exitCode)
}
