// File: app/app.go
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"go-users-api/config"
	"go-users-api/db"
	"go-users-api/handler"
	"go-users-api/logger"
	"go-users-api/repository"
	"go-users-api/router"
	"go-users-api/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	DB     *sql.DB
	Router http.Handler
}

// New wires the layers on top of an open database. cache may be nil.
func New(database *sql.DB, cache service.ICacheClient) (*App, error) {
	cfg := config.AppConfig

	userRepo := repository.NewUserRepository(database)
	userService := service.NewUserService(userRepo, cache, cfg.Cache.TTL)

	links, err := handler.NewLinkBuilder(cfg.Server.BaseURL, handler.WithForwardedProto(cfg.Server.TrustForwardedProto))
	if err != nil {
		return nil, err
	}
	userHandler := handler.NewUserHandler(userService, service.NewUserMapper(), links)

	return &App{
		DB:     database,
		Router: router.NewRouter(userHandler, handler.NewHealthHandler(database), cfg.JWT.SecretKey),
	}, nil
}

// Run loads configuration from configPath and serves until SIGINT or SIGTERM.
func Run(configPath string) error {
	if err := setup(configPath); err != nil {
		return err
	}
	cfg := config.AppConfig

	database, err := db.Connect()
	if err != nil {
		return err
	}
	defer database.Close()

	if cfg.Migrations.OnStartup {
		if err := db.RunMigrations(cfg.Migrations.Path, cfg.DatabaseURL(), false); err != nil {
			return err
		}
	}

	// Keep the interface nil when redis is off; a typed nil would not be.
	var cache service.ICacheClient
	if cfg.Redis.Enabled {
		rdb, err := db.ConnectRedis()
		if err != nil {
			return err
		}
		defer rdb.Close()
		cache = rdb
	} else {
		logger.Log.Info("Redis disabled, user cache is off")
	}

	a, err := New(database, cache)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Log.Infof("Server starting on port :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-quit:
	}

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Log.Info("Server exited properly")
	return nil
}

// Migrate applies or rolls back the schema without starting the server.
func Migrate(configPath string, down bool) error {
	if err := setup(configPath); err != nil {
		return err
	}
	cfg := config.AppConfig
	return db.RunMigrations(cfg.Migrations.Path, cfg.DatabaseURL(), down)
}

func setup(configPath string) error {
	if err := config.LoadConfig(configPath); err != nil {
		return err
	}
	logger.Init(config.AppConfig.Log.Level, config.AppConfig.Log.Format)
	logger.Log.Info("Configuration loaded successfully")
	return nil
}
