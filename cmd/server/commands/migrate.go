package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rongwang/finance-server/cmd/server/output"
	"github.com/rongwang/finance-server/internal/config"
	"github.com/rongwang/finance-server/internal/repository"
)

var steps int

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
	Long: `Apply or roll back the embedded schema migrations.

Subcommands:
  up       - Apply pending migrations
  down     - Roll back migrations
  version  - Show the applied schema version`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m *repository.Migrator) error {
			if err := m.Up(); err != nil {
				return err
			}
			output.Success("Schema is up to date")
			return printVersion(m)
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	Long: `Roll back applied migrations.

Examples:
  finance-server migrate down            # Roll back the last migration
  finance-server migrate down --steps 2  # Roll back two migrations`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m *repository.Migrator) error {
			output.Warning("Rolling back %d migration(s)", steps)
			if err := m.Down(steps); err != nil {
				return err
			}
			output.Success("Rollback complete")
			return printVersion(m)
		})
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the applied schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(printVersion)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)

	migrateDownCmd.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")
}

func withMigrator(fn func(m *repository.Migrator) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dsn := cfg.Database.GetDSN()
	if cfg.Database.Driver == "sqlite" {
		dsn = config.SQLiteDSN(dsn)
	}

	output.Info("Using %s database", cfg.Database.Driver)
	m, err := repository.NewMigrator(cfg.Database.Driver, dsn)
	if err != nil {
		output.Error("Could not open migrations")
		return err
	}
	defer m.Close()

	if err := fn(m); err != nil {
		output.Error("Migration failed")
		return err
	}
	return nil
}

func printVersion(m *repository.Migrator) error {
	version, dirty, ok, err := m.Version()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if !ok {
		output.Muted("No migrations applied")
		return nil
	}

	output.KeyValue("version", version)
	if dirty {
		output.Warning("Schema is dirty: the last migration failed part way")
	}
	return nil
}
