package compute

import (
	"fmt"

	"github.com/imamik/oxide/internal/provisioning"
)

const phase = "compute"

// Provisioner handles compute resource provisioning (servers, node pools).
type Provisioner struct{}

// NewProvisioner creates a new compute provisioner.
func NewProvisioner() *Provisioner {
	return &Provisioner{}
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return phase
}

// Provision implements the provisioning.Phase interface.
// This method creates ALL servers (control plane + workers) in parallel.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	env, err := ResolveEnv(ctx)
	if err != nil {
		return err
	}

	specs := ClusterSpecs(ctx)
	userData := map[provisioning.Role][]byte{
		provisioning.RoleControlPlane: ctx.State.ControlPlaneConfig,
		provisioning.RoleWorker:       ctx.State.WorkerConfig,
	}

	cps := 0
	for _, s := range specs {
		if s.Role.IsControlPlane() {
			cps++
		}
	}
	ctx.Observer.Printf("[%s] Creating %d control plane + %d worker servers in parallel...", phase, cps, len(specs)-cps)

	nodes, err := CreateServers(ctx, env, specs, userData)
	if err != nil {
		return fmt.Errorf("failed to provision servers: %w", err)
	}

	for _, n := range nodes {
		if n.Role.IsControlPlane() {
			ctx.State.ControlPlanes = append(ctx.State.ControlPlanes, n)
		} else {
			ctx.State.Workers = append(ctx.State.Workers, n)
		}
	}
	ctx.Observer.Printf("[%s] Successfully created all %d servers", phase, len(nodes))

	return ApplyFirewall(ctx, nodes)
}

// ClusterSpecs names every server of the configured topology, control
// planes first.
func ClusterSpecs(ctx *provisioning.Context) []NodeSpec {
	var specs []NodeSpec
	for _, pool := range ctx.Config.ControlPlanes {
		specs = append(specs, PoolSpecs(ctx.Config.ClusterName, provisioning.RoleControlPlane, pool, 1, pool.Count, pool.Count)...)
	}
	for _, pool := range ctx.Config.Workers {
		specs = append(specs, PoolSpecs(ctx.Config.ClusterName, provisioning.RoleWorker, pool, 1, pool.Count, pool.Count)...)
	}
	return specs
}
