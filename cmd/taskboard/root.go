package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskboard/internal/config"
	"github.com/phrazzld/taskboard/internal/platform/logger"
	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configFile  string
	sessionFile string
	verbose     bool
}

// newRootCmd builds a fresh command tree. Cobra commands keep flag state
// between runs, so tests build their own tree per case.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "taskboard",
		Short: "Task dashboard server and client",
		Long: `taskboard serves the task dashboard (HTML, JSON API and live change
stream) and doubles as a command line client for the same hosted backend.

Configuration is read from taskboard.yaml in the working directory or the
file named by --config, with TASKBOARD_* environment variables taking
precedence.`,
		SilenceUsage: true,
	}
	root.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	root.SetVersionTemplate("taskboard {{.Version}}\n")

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "Path to a YAML config file")
	root.PersistentFlags().StringVar(&opts.sessionFile, "session", "", "Path to the CLI session file (default: user config dir)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log at debug level on stderr")

	root.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newTasksCmd(opts),
	)
	return root
}

// loadConfig loads configuration for a subcommand.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFile(o.configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// cliLogger returns a stderr logger at level, or debug with --verbose.
func (o *rootOptions) cliLogger(cmd *cobra.Command, level string) *slog.Logger {
	if o.verbose {
		level = "debug"
	}
	return logger.New(cmd.ErrOrStderr(), level)
}
