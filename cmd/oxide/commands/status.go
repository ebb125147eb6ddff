package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/oxide/cmd/oxide/handlers"
)

// Status returns the status command.
func Status(opts *handlers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the servers and health of a cluster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Status(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}
}
