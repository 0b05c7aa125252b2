// Package cli implements the taskboard command-line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/randalmurphal/taskboard/internal/config"
)

var (
	cfgFile string
	verbose bool
	jsonOut bool
)

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "taskboard",
		Short: "Project task board with a guarded move engine",
		Long: `taskboard serves a project task board whose moves are checked against
the workflow, task dependencies, the project's status and the task's version
before anything is written.

Quick start:
  taskboard migrate                   Create or upgrade the database schema
  taskboard seed                      Load a demo project
  taskboard board demo --tenant demo  Show the demo board
  taskboard serve                     Start the HTTP API`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initConfig()
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./"+config.ConfigFileName+" or $HOME/.taskboard/"+config.ConfigFileName+")")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	root.PersistentFlags().BoolVar(&jsonOut, "json", false, "output as JSON")

	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newMoveCmd())
	root.AddCommand(newBoardCmd())
	root.AddCommand(newHistoryCmd())
	root.AddCommand(newSeedCmd())
	root.AddCommand(newTransitionsCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// Execute runs the CLI and prints any error.
func Execute() error {
	err := newRootCmd().Execute()
	if err != nil {
		PrintError(err)
	}
	return err
}

// initConfig locates the config file. Settings themselves are loaded by
// loadConfig so environment variables and flags apply on top of it.
func initConfig() {
	viper.Reset()
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.taskboard")
		viper.SetConfigType("yaml")
		viper.SetConfigName("taskboard")
	}

	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// flagKeys maps command flags to the config keys they override.
var flagKeys = map[string]string{
	"host":   "server.host",
	"port":   "server.port",
	"driver": "database.driver",
	"db":     "database.sqlite.path",
}

// loadConfig reads the discovered config file, environment variables, and
// finally any config flag the command was given.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(viper.ConfigFileUsed())
	if err != nil {
		return nil, err
	}

	flags := viper.New()
	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := flags.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind --%s: %w", flag, err)
			}
		}
	}
	if flags.IsSet("server.host") {
		cfg.Server.Host = flags.GetString("server.host")
	}
	if flags.IsSet("server.port") {
		cfg.Server.Port = flags.GetInt("server.port")
	}
	if flags.IsSet("database.driver") {
		cfg.Database.Driver = flags.GetString("database.driver")
	}
	if flags.IsSet("database.sqlite.path") {
		cfg.Database.SQLite.Path = flags.GetString("database.sqlite.path")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger and installs it as the default.
// --verbose forces debug level and --json forces JSON output.
func newLogger(cfg *config.Config) *slog.Logger {
	lc := cfg.Log
	if verbose {
		lc.Level = "debug"
	}
	if jsonOut {
		lc.Format = "json"
	}
	logger := lc.NewLogger(os.Stderr)
	slog.SetDefault(logger)
	return logger
}
