package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"countrydb/internal/menu"
)

// NewCheckCommand creates the check command, which loads the dataset and
// reports every row that would be skipped
func NewCheckCommand(opts *RootOptions, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the dataset and report invalid rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}

			app, err := OpenApp(cfg)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to start", err)
			}
			defer app.Close()

			report, err := app.Store.Open()
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load dataset", err)
			}

			menu.NewFormatter(out).LoadReport(report)
			if n := len(report.Skipped); n > 0 {
				return NewExitError(ExitFailure, fmt.Sprintf("%d invalid rows", n))
			}
			return nil
		},
	}
}
