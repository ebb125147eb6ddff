package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/oxide/cmd/oxide/handlers"
)

// Upgrade returns the upgrade command.
func Upgrade(opts *handlers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade",
		Short: "Upgrade Talos and Kubernetes (not implemented)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Upgrade(cmd.Context(), opts)
		},
	}
}
