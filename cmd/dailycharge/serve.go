package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"daily-charge/internal/api"
	"daily-charge/internal/auth"
	"daily-charge/internal/config"
	"daily-charge/internal/event"
	"daily-charge/internal/logger"
	"daily-charge/internal/prefs"
	"daily-charge/internal/repository"
	"daily-charge/internal/service"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, err := logger.New(cfg.Environment, cfg.LogDir)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	rdb, err := prefs.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer rdb.Close()

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	dayRepo := repository.NewDayRepository(db)

	bus := event.NewBus()
	tokens := auth.NewManager(cfg.JWTSecret)

	authSvc := service.NewAuthService(userRepo, tokens, log)
	taskSvc := service.NewTaskService(db, taskRepo, dayRepo, bus, log)
	statsSvc := service.NewStatsService(dayRepo)
	reconcileSvc := service.NewReconcileService(db, taskRepo, dayRepo, userRepo, log)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	api.Setup(r, log)
	api.Register(r, api.Deps{
		Auth:   authSvc,
		Tasks:  taskSvc,
		Stats:  statsSvc,
		Prefs:  prefs.NewStore(rdb),
		Tokens: tokens,
		Log:    log,
	})

	if cfg.ReconcileTime != "" {
		scheduler := service.NewSchedulerService(time.Local)
		if _, err := scheduler.ScheduleDaily(cfg.ReconcileTime, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			if err := reconcileSvc.RebuildAll(jobCtx); err != nil {
				log.Errorw("nightly reconcile failed", "error", err)
			}
		}); err != nil {
			return fmt.Errorf("schedule reconcile: %w", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Infow("server listening", "port", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}
