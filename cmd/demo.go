package cmd

import (
	"github.com/devguard-labs/devguard/internal/resolver"
	"github.com/spf13/cobra"
)

func demoCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Scan the built-in demo specimen",
		Long:  `Run a scan with no inputs, which submits the built-in demo specimen to the backend.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, cleanup, err := newSession()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := ctrl.RunScan(cmd.Context(), resolver.Inputs{}); err != nil {
				return err
			}
			return printResults(cmd, ctrl, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the results view as JSON")
	return cmd
}
