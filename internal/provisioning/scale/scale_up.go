package scale

import (
	"context"
	"fmt"

	"github.com/imamik/oxide/internal/artifacts"
	"github.com/imamik/oxide/internal/provisioning"
	"github.com/imamik/oxide/internal/provisioning/compute"
	"github.com/imamik/oxide/internal/util/async"
	"github.com/imamik/oxide/internal/util/poll"
)

// ScaleUp creates plan.Add servers from the machine config saved at create
// time and waits for every new node to become Ready. Ordinals continue after
// the highest existing one.
func (s *Scaler) ScaleUp(ctx *provisioning.Context, plan *Plan) ([]provisioning.Node, error) {
	machineConfig, err := readArtifact(ctx, plan.Role.ConfigArtifact())
	if err != nil {
		return nil, err
	}
	kubeconfig, err := readArtifact(ctx, artifacts.Kubeconfig)
	if err != nil {
		return nil, err
	}

	env, err := compute.ResolveEnv(ctx)
	if err != nil {
		return nil, err
	}

	poolSize := len(plan.Members) + plan.Add
	specs := compute.PoolSpecs(ctx.Config.ClusterName, plan.Role, plan.Pool, plan.NextOrdinal(), plan.Add, poolSize)

	nodes, err := compute.CreateServers(ctx, env, specs, map[provisioning.Role][]byte{plan.Role: machineConfig})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s servers: %w", plan.Role, err)
	}

	if err := compute.ApplyFirewall(ctx, nodes); err != nil {
		return nodes, err
	}

	nc, err := s.newNodeClient(kubeconfig)
	if err != nil {
		return nodes, fmt.Errorf("failed to create Kubernetes client: %w", err)
	}

	tasks := make([]async.Task, 0, len(nodes))
	for _, n := range nodes {
		tasks = append(tasks, async.Task{
			Name: n.Name,
			Func: func(c context.Context) error {
				return waitForNodeReady(c, ctx, nc, n.Name)
			},
		})
	}
	if err := async.RunParallel(ctx, tasks); err != nil {
		return nodes, fmt.Errorf("new nodes did not become ready: %w", err)
	}

	ctx.Observer.Printf("[%s] Added %d %s nodes to pool %s", phase, len(nodes), plan.Role, plan.Pool.Name)
	return nodes, nil
}

func waitForNodeReady(c context.Context, ctx *provisioning.Context, nc NodeClient, name string) error {
	w := ctx.Timeouts.NodeReady
	return poll.UntilTrue(c, fmt.Sprintf("[%s] Waiting for node %s to be ready", phase, name), w.Interval, w.Timeout,
		func(c context.Context) (bool, error) {
			state, err := nc.GetNodeState(c, name)
			if err != nil {
				// the API server may be briefly unavailable while the node joins
				ctx.Observer.Debugf("[%s] node %s: %v", phase, name, err)
				return false, nil
			}
			return state.Ready, nil
		},
		poll.WithLogger(ctx.Logf),
	)
}
