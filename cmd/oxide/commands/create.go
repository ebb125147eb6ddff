package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/oxide/cmd/oxide/handlers"
)

// Create returns the create command.
func Create(opts *handlers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create a cluster from the configuration file",
		Long: `Create provisions a complete cluster on Hetzner Cloud.

It creates, in order:
  - Firewall, private network and SSH key
  - Talos machine configs, talosconfig and cluster secrets
  - All control plane and worker servers
  - The etcd bootstrap and an admin kubeconfig
  - Cilium with Gateway API support

Generated artifacts are written to the output directory. Keep them: scale
and status need them.

Example:
  oxide create -c cluster.yaml -o ./output`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Create(cmd.Context(), opts)
		},
	}
}
