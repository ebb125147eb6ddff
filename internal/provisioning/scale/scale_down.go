package scale

import (
	"context"
	"errors"
	"fmt"

	"github.com/imamik/oxide/internal/artifacts"
	"github.com/imamik/oxide/internal/fault"
	"github.com/imamik/oxide/internal/metrics"
	"github.com/imamik/oxide/internal/platform/talos"
	"github.com/imamik/oxide/internal/provisioning"
	"github.com/imamik/oxide/internal/util/poll"
	"github.com/imamik/oxide/internal/util/retry"
)

// NodeState is a step of the per-node removal protocol.
type NodeState string

const (
	StateRunning            NodeState = "Running"
	StateAPICheck           NodeState = "APICheck"
	StateResetting          NodeState = "Resetting"
	StateCordoned           NodeState = "Cordoned"
	StateRemovedFromCluster NodeState = "RemovedFromCluster"
	StateDeleted            NodeState = "Deleted"
	StateUnreachableAbort   NodeState = "UnreachableAbort"
	StateResetFailed        NodeState = "ResetFailed"
)

// RemovalError is a fatal failure removing one node. It aborts the
// remaining removals.
type RemovalError struct {
	Node  string
	State NodeState
	Err   error
}

func (e *RemovalError) Error() string {
	switch e.State {
	case StateUnreachableAbort:
		return fmt.Sprintf("node %s: Talos API unreachable, refusing to remove it: %v", e.Node, e.Err)
	case StateResetFailed:
		return fmt.Sprintf("node %s: reset failed: %v", e.Node, e.Err)
	}
	return fmt.Sprintf("node %s: %s: %v", e.Node, e.State, e.Err)
}

func (e *RemovalError) Unwrap() error {
	return e.Err
}

// ScaleDown removes the given nodes one at a time. all is the current
// cluster membership, used for the quorum check, which runs before any
// side effect. Servers of nodes that completed the protocol are deleted
// at the end, also when a later node aborted the run.
func (s *Scaler) ScaleDown(ctx *provisioning.Context, all, remove []provisioning.Node) error {
	cps := provisioning.CountRole(all, provisioning.RoleControlPlane)
	removing := provisioning.CountRole(remove, provisioning.RoleControlPlane)
	warning, err := ValidateQuorum(cps, removing)
	if err != nil {
		return err
	}
	if warning != "" {
		provisioning.LogWarning(ctx.Observer, phase, "%s", warning)
	}

	talosconfig, err := readArtifact(ctx, artifacts.Talosconfig)
	if err != nil {
		return err
	}
	kubeconfig, err := readArtifact(ctx, artifacts.Kubeconfig)
	if err != nil {
		return err
	}

	tc, err := s.newTalosClient(talosconfig)
	if err != nil {
		return fmt.Errorf("failed to create Talos client: %w", err)
	}
	nc, err := s.newNodeClient(kubeconfig)
	if err != nil {
		return fmt.Errorf("failed to create Kubernetes client: %w", err)
	}

	var removed []provisioning.Node
	var fatal error
	for _, node := range remove {
		if err := ctx.Err(); err != nil {
			fatal = err
			break
		}
		if err := removeNode(ctx, tc, nc, node); err != nil {
			fatal = err
			break
		}
		removed = append(removed, node)
	}

	deleteServers(ctx, removed)
	return fatal
}

// removeNode walks one node through the removal protocol up to
// RemovedFromCluster. Only an unreachable Talos API or a failed reset is
// returned as an error.
func removeNode(ctx *provisioning.Context, tc talos.Client, nc NodeClient, node provisioning.Node) error {
	state := StateRunning
	advance := func(to NodeState) {
		ctx.Observer.Printf("[%s] node %s: %s -> %s", phase, node.Name, state, to)
		state = to
	}

	if node.PublicIP == "" {
		provisioning.LogWarning(ctx.Observer, phase, "node %s has no public IP, skipping Talos reset", node.Name)
	} else {
		advance(StateAPICheck)
		if _, err := tc.Version(ctx, node.PublicIP); err != nil {
			advance(StateUnreachableAbort)
			return &RemovalError{Node: node.Name, State: StateUnreachableAbort, Err: err}
		}

		advance(StateResetting)
		if err := resetNode(ctx, tc, node); err != nil {
			advance(StateResetFailed)
			return &RemovalError{Node: node.Name, State: StateResetFailed, Err: err}
		}
	}

	if err := waitForCordon(ctx, nc, node.Name); err != nil {
		provisioning.LogWarning(ctx.Observer, phase, "could not confirm node %s is cordoned: %v", node.Name, err)
	} else {
		advance(StateCordoned)
	}

	if err := nc.DeleteNode(ctx, node.Name); err != nil && !fault.IsNotFound(err) {
		provisioning.LogWarning(ctx.Observer, phase, "failed to delete Kubernetes node %s: %v", node.Name, err)
	}
	advance(StateRemovedFromCluster)
	return nil
}

// resetNode performs a graceful reset, which leaves etcd for control planes.
// The node drops its connection while it wipes itself, so a transient error
// that persists through the retries is taken as the node powering off.
func resetNode(ctx *provisioning.Context, tc talos.Client, node provisioning.Node) error {
	policy := ctx.Timeouts.Reset
	err := retry.Do(ctx, func() error {
		err := tc.Reset(ctx, node.PublicIP, true)
		if err != nil && !fault.IsTransient(err) {
			return retry.Fatal(err)
		}
		return err
	},
		retry.WithMaxRetries(max(policy.Attempts-1, 0)),
		retry.WithFixedDelay(policy.Delay),
	)
	if err == nil {
		return nil
	}
	if fault.IsTransient(err) {
		ctx.Observer.Printf("[%s] node %s stopped answering during reset (expected): %v", phase, node.Name, err)
		return nil
	}
	return err
}

// waitForCordon waits until the node is unschedulable and no longer Ready,
// or gone.
func waitForCordon(ctx *provisioning.Context, nc NodeClient, name string) error {
	w := ctx.Timeouts.Cordon
	return poll.UntilTrue(ctx, fmt.Sprintf("[%s] Waiting for node %s to be cordoned", phase, name), w.Interval, w.Timeout,
		func(c context.Context) (bool, error) {
			state, err := nc.GetNodeState(c, name)
			if err != nil {
				if fault.IsTransient(err) {
					return false, nil
				}
				return false, err
			}
			return !state.Exists || (state.Unschedulable && !state.Ready), nil
		},
		poll.WithLogger(ctx.Logf),
	)
}

// deleteServers deletes the servers of removed nodes. Failures are
// reported; the servers are already wiped and out of the cluster.
func deleteServers(ctx *provisioning.Context, removed []provisioning.Node) {
	var errs []error
	for _, node := range removed {
		if err := ctx.Infra.DeleteServer(ctx, node.ID); err != nil {
			errs = append(errs, fmt.Errorf("server %s (ID: %d): %w", node.Name, node.ID, err))
			continue
		}
		metrics.RecordNodeRemoved(node.Role.String())
		provisioning.LogResourceDeleted(ctx.Observer, phase, "server", node.Name)
		ctx.Observer.Printf("[%s] node %s: %s -> %s", phase, node.Name, StateRemovedFromCluster, StateDeleted)
	}
	if err := errors.Join(errs...); err != nil {
		provisioning.LogWarning(ctx.Observer, phase, "failed to delete servers, remove them manually: %v", err)
	}
}
