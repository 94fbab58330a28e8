// Package main provides the main entry point for the studyquiz admin CLI tool.
package main

import (
	"context"
	"fmt"
	"os"

	"studyquiz/cmd/adm/commands"
	"studyquiz/internal/config"
	"studyquiz/internal/database"
	"studyquiz/internal/observability"
	"studyquiz/internal/services"

	"github.com/spf13/cobra"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Quiet logging and no exporters for the CLI to avoid connection errors
	cfg.Server.LogLevel = "error"
	cfg.OpenTelemetry.EnableTracing = false
	cfg.OpenTelemetry.EnableMetrics = false
	cfg.OpenTelemetry.EnableLogging = false

	tp, mp, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, "studyquiz-admin")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if tp != nil {
			if err := tp.Shutdown(context.TODO()); err != nil {
				logger.Warn(ctx, "Error shutting down tracer provider", map[string]interface{}{"error": err.Error(), "provider": "tracer"})
			}
		}
		if mp != nil {
			if err := mp.Shutdown(context.TODO()); err != nil {
				logger.Warn(ctx, "Error shutting down meter provider", map[string]interface{}{"error": err.Error(), "provider": "meter"})
			}
		}
	}()

	// Connect without running migrations; the db migrate command applies them explicitly
	dbManager := database.NewManager(logger)
	db, err := dbManager.InitDBWithoutMigrations(cfg.Database)
	if err != nil {
		logger.Error(ctx, "Failed to connect to database", err, map[string]interface{}{"db_url": cfg.Database.URL})
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn(ctx, "Failed to close database connection", map[string]interface{}{"error": err.Error()})
		}
	}()

	courseService := services.NewCourseService(db, logger)
	statsService := services.NewStatsService(db, logger)

	rootCmd := &cobra.Command{
		Use:   "adm",
		Short: "Studyquiz Administration Tool",
		Long: `Studyquiz Administration Tool

A CLI tool for administering the studyquiz backend.
Provides commands for database operations, course inspection, and learner statistics.`,

		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				fmt.Printf("Error showing help: %v\n", err)
			}
		},
	}

	rootCmd.AddCommand(commands.DatabaseCommands(dbManager, logger, db))
	rootCmd.AddCommand(commands.CourseCommands(courseService, logger))
	rootCmd.AddCommand(commands.StatsCommands(statsService, logger))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
