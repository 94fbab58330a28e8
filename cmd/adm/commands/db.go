// Package commands provides CLI commands for the admin tool
package commands

import (
	"database/sql"
	"fmt"
	"os"
	"text/tabwriter"

	"studyquiz/internal/database"
	"studyquiz/internal/observability"
	contextutils "studyquiz/internal/utils"

	"github.com/spf13/cobra"
)

// DatabaseCommands returns the database management commands
func DatabaseCommands(dbManager *database.Manager, logger *observability.Logger, db *sql.DB) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
		Long: `Database management commands for the studyquiz backend.

Available commands:
  stats    - Show database row counts per table
  migrate  - Apply schema and pending migrations
  reset    - Drop all tables and rebuild the schema`,
	}

	dbCmd.AddCommand(dbStatsCmd(logger, db))
	dbCmd.AddCommand(migrateCmd(dbManager, logger, db))
	dbCmd.AddCommand(resetCmd(dbManager, db))

	return dbCmd
}

func dbStatsCmd(logger *observability.Logger, db *sql.DB) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show database row counts",
		Long:  `Show row counts for each studyquiz table.`,
		RunE:  runDBStats(logger, db),
	}
}

func migrateCmd(dbManager *database.Manager, logger *observability.Logger, db *sql.DB) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema and pending migrations",
		Long:  `Apply the application schema and any pending migrations to the configured database.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := dbManager.RunMigrations(db); err != nil {
				return contextutils.WrapError(err, "failed to run migrations")
			}
			fmt.Println("Migrations applied")
			return nil
		},
	}
}

func resetCmd(dbManager *database.Manager, db *sql.DB) *cobra.Command {
	var confirmed bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop all tables and rebuild the schema",
		Long:  `Drop every studyquiz table and rebuild the schema from scratch. All data is lost.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if !confirmed {
				return fmt.Errorf("refusing to reset without --yes")
			}
			if err := dbManager.ResetDatabase(db); err != nil {
				return contextutils.WrapError(err, "failed to reset database")
			}
			fmt.Println("Database reset")
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm the destructive reset")
	return cmd
}

func runDBStats(_ *observability.Logger, db *sql.DB) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		tables := []string{"courses", "quizzes", "completed_courses", "learner_stats"}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "TABLE\tROWS")
		for _, table := range tables {
			var count int
			// Table names come from the fixed list above, not user input.
			if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
				return contextutils.WrapErrorf(err, "failed to count rows in %s", table)
			}
			fmt.Fprintf(w, "%s\t%d\n", table, count)
		}
		return w.Flush()
	}
}
