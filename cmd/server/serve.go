package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/yukikurage/task-user-api/internal/assignment"
	"github.com/yukikurage/task-user-api/internal/config"
	"github.com/yukikurage/task-user-api/internal/database"
	"github.com/yukikurage/task-user-api/internal/handlers"
	"github.com/yukikurage/task-user-api/internal/logger"
	"github.com/yukikurage/task-user-api/internal/observability"
	"github.com/yukikurage/task-user-api/internal/server"
	"github.com/yukikurage/task-user-api/internal/services"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logger.Setup(cfg.Log)
	gin.SetMode(cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.TracingEnabled {
		shutdown, err := observability.InitTracing(handlers.ServiceName, os.Stdout)
		if err != nil {
			return fmt.Errorf("failed to set up tracing: %w", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.Error("failed to flush traces", "error", err)
			}
		}()
	}

	store, err := database.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			log.Error("failed to close store", "error", err)
		}
	}()

	sync := assignment.NewSynchronizer(store.Tasks, store.Users, log)
	taskHandler := handlers.NewTaskHandler(services.NewTaskService(store.Tasks, sync, cfg.Server.DefaultTaskLimit, log))
	userHandler := handlers.NewUserHandler(services.NewUserService(store.Users, sync, log))

	router := server.NewRouter(server.RouterOptions{
		Logger:         log,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
		Tracing:        cfg.Server.TracingEnabled,
	}, taskHandler, userHandler)

	log.Info("starting task API",
		slog.String("driver", cfg.Store.Driver),
		slog.Int("port", cfg.Server.Port),
	)
	return server.New(cfg.Server.Addr(), router, log).Run(ctx)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logger.Setup(cfg.Log)
	store, err := database.Open(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	log.Info("store ready", "driver", cfg.Store.Driver)
	return store.Close(context.Background())
}
