package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/taskboard/internal/db/driver"
	"github.com/randalmurphal/taskboard/internal/storage"
)

// newMigrateCmd creates the migrate command
func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long: `Create the board schema or upgrade it to the current version.

Migrations are embedded in the binary and applied in order; ones already
recorded in the database are skipped.

Examples:
  taskboard migrate                         # Configured database
  taskboard migrate --db /tmp/board.db      # A specific SQLite file
  TASKBOARD_DB_DRIVER=postgres taskboard migrate`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cfg.Database.AutoMigrate = true
			logger := newLogger(cfg)

			backend, err := storage.NewBackend(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = backend.Close() }()

			dialect, _ := cfg.Dialect()
			target := cfg.Database.SQLite.Path
			if dialect == driver.DialectPostgres {
				target = fmt.Sprintf("%s@%s:%d", cfg.Database.Postgres.Database,
					cfg.Database.Postgres.Host, cfg.Database.Postgres.Port)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema up to date (%s: %s)\n", dialect, target)
			return nil
		},
	}

	addDatabaseFlags(cmd)
	return cmd
}
