package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/oxide/cmd/oxide/handlers"
)

// DeployNginx returns the deploy-nginx command.
func DeployNginx(opts *handlers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "deploy-nginx",
		Short: "Deploy the nginx example behind the Cilium gateway",
		Long: `Deploy-nginx applies nginx-deployment.yaml and nginx-gateway.yaml from
the working directory with server-side apply. The gateway is reachable on
port 80 of every node.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.DeployNginx(cmd.Context(), opts)
		},
	}
}
