package main

import (
	"io"

	"github.com/spf13/cobra"

	"countrydb/internal/config"
)

// RootOptions holds global flags for all commands
type RootOptions struct {
	ConfigPath string
	DataPath   string
	Backend    string
	LogLevel   string
}

// NewRootCommand creates the countrydb command. Without a subcommand it runs
// the interactive menu over in and out.
func NewRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "countrydb",
		Short:         "Browse and edit a dataset of countries",
		Long:          "countrydb searches, filters, sorts and edits a dataset of countries stored as CSV, SQLite or PostgreSQL.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			return RunMenuApp(in, out, cfg)
		},
	}
	cmd.SetOut(out)

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.DataPath, "data", "", "CSV dataset path (overrides COUNTRYDB_DATA)")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "storage backend: csv, sqlite, postgres or memory")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level: debug, info, warn or error")

	cmd.AddCommand(NewCheckCommand(opts, out))

	return cmd
}

// resolveConfig loads the configuration, applies the flags that were set and
// validates the result once
func resolveConfig(cmd *cobra.Command, opts *RootOptions) (*config.Config, error) {
	cfg, err := config.LoadUnvalidated(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.Dataset.Path = opts.DataPath
	}
	if flags.Changed("backend") {
		cfg.Backend.Kind = opts.Backend
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = opts.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	return cfg, nil
}
