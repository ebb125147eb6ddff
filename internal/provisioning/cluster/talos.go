package cluster

import (
	"context"
	"fmt"

	"github.com/imamik/oxide/internal/fault"
	"github.com/imamik/oxide/internal/platform/talos"
	"github.com/imamik/oxide/internal/provisioning"
	"github.com/imamik/oxide/internal/util/poll"
)

// WaitForTalosAPI polls until the node's Talos API answers. Transient
// network errors mean the node is still booting; any other error aborts.
func WaitForTalosAPI(ctx *provisioning.Context, tc talos.Client, node provisioning.Node) error {
	wait := ctx.Timeouts.TalosAPI
	desc := fmt.Sprintf("[%s] Waiting for Talos API on %s (%s)", phase, node.Name, node.PublicIP)

	return poll.UntilTrue(ctx, desc, wait.Interval, wait.Timeout, func(c context.Context) (bool, error) {
		_, err := tc.Version(c, node.PublicIP)
		switch {
		case err == nil:
			return true, nil
		case fault.IsTransient(err), fault.IsBusy(err):
			ctx.Observer.Debugf("Talos API on %s not ready: %v", node.Name, err)
			return false, nil
		default:
			return false, err
		}
	}, poll.WithLogger(ctx.Logf))
}
