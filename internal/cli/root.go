package cli

import (
	"github.com/spf13/cobra"
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:           "results-api",
		Short:         "Term result statistics and quiz grading API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().IntVar(&port, "port", 0, "port to listen on (overrides PORT)")
	cmd.AddCommand(newServeCmd(&port))
	cmd.AddCommand(newMigrateCmd())
	return cmd
}
