package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/webservertaskmanager/task-api/internal/config"
	"github.com/webservertaskmanager/task-api/internal/database"
	"github.com/webservertaskmanager/task-api/internal/logger"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "task-api",
		Short:         "Task management REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and indexes, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			log := logger.New(cfg.LogLevel, cfg.LogFormat)

			db, err := database.Connect(cfg, log)
			if err != nil {
				return err
			}
			defer closeDB(db, log)

			return database.Migrate(db, log)
		},
	}
}
