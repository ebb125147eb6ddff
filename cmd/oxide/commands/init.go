package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/oxide/cmd/oxide/handlers"
)

// Init returns the command that writes a new cluster configuration.
func Init(opts *handlers.Options) *cobra.Command {
	var (
		interactive bool
		advanced    bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a cluster configuration file",
		Long: `Init writes a cluster configuration to the --config path.

By default an example configuration is written: three cpx21 control
planes and three cpx31 workers. With --interactive a wizard asks for the
cluster name, pools, versions and Cilium options instead.

Init refuses to overwrite an existing file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Init(cmd.Context(), opts.ConfigPath, interactive, advanced)
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Answer questions instead of writing the example")
	cmd.Flags().BoolVarP(&advanced, "advanced", "a", false, "Also ask for network and Cilium options")

	return cmd
}
