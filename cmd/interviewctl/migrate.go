package main

import (
	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/johnquangdev/mock-interview/internal/infrastructure/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back the embedded schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("max")
		return runMigrate(migrate.Up, limit)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back applied migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("max")
		return runMigrate(migrate.Down, limit)
	},
}

func init() {
	migrateUpCmd.Flags().Int("max", 0, "maximum number of migrations to apply (0 applies all)")
	migrateDownCmd.Flags().Int("max", 1, "maximum number of migrations to roll back (0 rolls back all)")

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(dir migrate.MigrationDirection, limit int) error {
	l, err := newLogger()
	if err != nil {
		return err
	}
	defer l.Sync()

	db, _, err := openDB(l)
	if err != nil {
		return err
	}
	defer database.CloseDB(db)

	n, err := database.Migrate(db, dir, limit)
	if err != nil {
		return err
	}

	direction := "up"
	if dir == migrate.Down {
		direction = "down"
	}
	l.Info("✅ Migrations done", zap.String("direction", direction), zap.Int("count", n))
	return nil
}
