package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wippyai/wasm-replay/runtime"
)

func newInspectCmd(a *app) *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show how the modules link without running them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engCfg := a.cfg.EngineConfig()
			report, err := runtime.Inspect(cmd.Context(), &engCfg, a.cfg.Paths())
			if err != nil {
				return &ExitError{Code: exitCode(err), Err: err}
			}

			if interactive {
				if err := runInteractive(report); err != nil {
					return err
				}
			} else {
				fmt.Fprint(cmd.OutOrStdout(), renderReport(report))
			}

			if err := report.Err(); err != nil {
				return &ExitError{Code: ExitConfig, Err: err}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse the report in a terminal UI")
	return cmd
}
