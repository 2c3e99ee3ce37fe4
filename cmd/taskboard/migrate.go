package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/phrazzld/taskboard/internal/platform/postgres"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate <" + strings.Join(postgres.MigrationCommands, "|") + ">",
		Short: "Manage the tasks table schema",
		Long: `Apply or inspect the embedded database migrations.

Only needed when tasks are stored directly in Postgres or changes are read
with LISTEN; the hosted service manages its own schema otherwise.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: postgres.MigrationCommands,
		RunE: func(cmd *cobra.Command, args []string) error {
			command := args[0]
			if !slices.Contains(postgres.MigrationCommands, command) {
				return fmt.Errorf("unknown migration command %q", command)
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return fmt.Errorf("database.url must be set to run migrations")
			}

			log := opts.cliLogger(cmd, "info")
			db, err := postgres.Open(cmd.Context(), cfg.Database.URL, 1)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			return postgres.Migrate(cmd.Context(), db, command, log)
		},
	}
}
