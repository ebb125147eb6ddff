package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/oxide/cmd/oxide/handlers"
)

// Scale returns the scale command.
//
// --count is the size the pool should have afterwards, not a delta.
func Scale(opts *handlers.Options) *cobra.Command {
	var (
		count int
		pool  string
	)

	cmd := &cobra.Command{
		Use:       "scale <control-plane|worker>",
		Short:     "Scale a node pool to a given size",
		ValidArgs: []string{"control-plane", "worker"},
		Long: `Scale adds nodes to or removes nodes from a pool of a running cluster.

--count is the target pool size. New nodes join with the machine config
saved at create time. Removed nodes are the newest ones; each is reset
through Talos (leaving etcd for control planes), removed from Kubernetes
and then deleted.

Removing control planes is refused when etcd would lose quorum.

Example:
  oxide scale worker --count 5
  oxide scale worker --pool gpu --count 0
  oxide scale control-plane --count 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Scale(cmd.Context(), opts, args[0], pool, count)
		},
	}

	cmd.Flags().IntVar(&count, "count", 0, "Target number of nodes in the pool (required)")
	cmd.Flags().StringVar(&pool, "pool", "", "Pool name (default: first pool of the role)")
	_ = cmd.MarkFlagRequired("count")

	return cmd
}
