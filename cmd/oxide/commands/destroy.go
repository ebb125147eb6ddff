package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/oxide/cmd/oxide/handlers"
)

// Destroy returns the destroy command.
func Destroy(opts *handlers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "destroy",
		Short: "Destroy a cluster and all associated resources",
		Long: `Destroy removes all cluster resources from Hetzner Cloud:
  - Servers (control plane and worker nodes)
  - Firewall
  - SSH key
  - Private network

Missing resources are skipped, so destroy can be re-run after a failure.

Example:
  oxide destroy -c cluster.yaml

WARNING: This operation is irreversible. All cluster data will be lost.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Destroy(cmd.Context(), opts)
		},
	}
}
