// Package commands defines the CLI command structure and flag bindings.
//
// Command execution is delegated to handler functions in the handlers
// package.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/oxide/cmd/oxide/handlers"
)

// Root returns the root command for the oxide CLI. Global flags are bound
// into one handlers.Options shared by every subcommand.
func Root() *cobra.Command {
	opts := &handlers.Options{}

	cmd := &cobra.Command{
		Use:           "oxide",
		Short:         "Provision Kubernetes on Hetzner Cloud using Talos and Cilium",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			handlers.ConfigureLogging(opts.Verbose)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.ConfigPath, "config", "c", handlers.DefaultConfigPath, "Path to cluster configuration file")
	flags.StringVarP(&opts.OutputDir, "output", "o", handlers.DefaultOutputDir, "Directory for generated artifacts")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "Enable debug output")
	flags.StringVar(&opts.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the command")

	cmd.AddCommand(Init(opts))
	cmd.AddCommand(Create(opts))
	cmd.AddCommand(Status(opts))
	cmd.AddCommand(Scale(opts))
	cmd.AddCommand(Destroy(opts))
	cmd.AddCommand(DeployNginx(opts))
	cmd.AddCommand(Upgrade(opts))
	cmd.AddCommand(Version())

	return cmd
}
