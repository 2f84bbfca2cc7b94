package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"daily-charge/internal/config"
	"daily-charge/internal/logger"
	"daily-charge/internal/repository"
	"daily-charge/internal/service"
)

func reconcileCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Rebuild day aggregates from task rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(".")
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			log, err := logger.New(cfg.Environment, cfg.LogDir)
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			defer log.Sync()

			db, err := repository.NewDB(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("db: %w", err)
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			svc := service.NewReconcileService(
				db,
				repository.NewTaskRepository(db),
				repository.NewDayRepository(db),
				repository.NewUserRepository(db),
				log,
			)

			if userID != "" {
				return svc.Rebuild(cmd.Context(), userID)
			}
			return svc.RebuildAll(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "rebuild a single user instead of all")

	return cmd
}
