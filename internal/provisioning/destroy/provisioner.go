package destroy

import (
	"context"
	"fmt"

	"github.com/imamik/oxide/internal/fault"
	hcloud_internal "github.com/imamik/oxide/internal/platform/hcloud"
	"github.com/imamik/oxide/internal/provisioning"
	"github.com/imamik/oxide/internal/util/async"
	"github.com/imamik/oxide/internal/util/labels"
	"github.com/imamik/oxide/internal/util/naming"
	"github.com/imamik/oxide/internal/util/retry"
)

const phase = "destroy"

// Provisioner handles cluster destruction.
type Provisioner struct{}

// NewProvisioner creates a new destroy provisioner.
func NewProvisioner() *Provisioner {
	return &Provisioner{}
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return phase
}

// Provision destroys the cluster and all associated resources. Server
// deletion is best effort; failures deleting the remaining resources are
// collected and returned together.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	cluster := ctx.Config.ClusterName
	ctx.Observer.Printf("[%s] Starting cluster destruction for: %s", phase, cluster)

	p.deleteServers(ctx)

	cleanup := &hcloud_internal.CleanupError{}
	cleanup.Add(p.deleteFirewall(ctx, naming.Firewall(cluster)))

	sshKey := naming.SSHKey(cluster)
	if err := ctx.Infra.DeleteSSHKey(ctx, sshKey); err != nil {
		cleanup.Add(fmt.Errorf("failed to delete SSH key %s: %w", sshKey, err))
	} else {
		provisioning.LogResourceDeleted(ctx.Observer, phase, "ssh key", sshKey)
	}

	network := naming.Network(cluster)
	if err := ctx.Infra.DeleteNetwork(ctx, network); err != nil {
		cleanup.Add(fmt.Errorf("failed to delete network %s: %w", network, err))
	} else {
		provisioning.LogResourceDeleted(ctx.Observer, phase, "network", network)
	}

	if err := cleanup.ErrOrNil(); err != nil {
		return err
	}
	ctx.Observer.Printf("[%s] Cluster %s destroyed successfully", phase, cluster)
	return nil
}

// deleteServers deletes every server labelled with the cluster. Failures
// are logged and skipped.
func (p *Provisioner) deleteServers(ctx *provisioning.Context) {
	servers, err := ctx.Infra.GetServersByLabel(ctx, labels.ClusterSelector(ctx.Config.ClusterName))
	if err != nil {
		provisioning.LogWarning(ctx.Observer, phase, "failed to list servers: %v", err)
		return
	}
	if len(servers) == 0 {
		ctx.Observer.Printf("[%s] No servers found", phase)
		return
	}

	ctx.Observer.Printf("[%s] Deleting %d servers...", phase, len(servers))
	tasks := make([]async.Task, 0, len(servers))
	for _, s := range servers {
		tasks = append(tasks, async.Task{
			Name: s.Name,
			Func: func(c context.Context) error {
				if err := ctx.Infra.DeleteServer(c, s.ID); err != nil {
					provisioning.LogWarning(ctx.Observer, phase, "failed to delete server %s (ID: %d): %v", s.Name, s.ID, err)
					return nil
				}
				provisioning.LogResourceDeleted(ctx.Observer, phase, "server", s.Name)
				return nil
			},
		})
	}
	_ = async.RunParallel(ctx, tasks)
}

// deleteFirewall retries while the firewall is still attached to servers
// whose deletion has not finished.
func (p *Provisioner) deleteFirewall(ctx *provisioning.Context, name string) error {
	policy := ctx.Timeouts.FirewallDelete
	attempt := 0

	err := retry.Do(ctx, func() error {
		attempt++
		err := ctx.Infra.DeleteFirewall(ctx, name)
		if err == nil {
			return nil
		}
		if !fault.IsBusy(err) {
			return retry.Fatal(err)
		}
		ctx.Observer.Printf("[%s] Firewall %s still in use, retrying (%d/%d)...", phase, name, attempt, policy.Attempts)
		return err
	},
		retry.WithMaxRetries(policy.Attempts-1),
		retry.WithFixedDelay(policy.Delay),
	)
	if err != nil {
		return fmt.Errorf("failed to delete firewall %s: %w", name, err)
	}
	provisioning.LogResourceDeleted(ctx.Observer, phase, "firewall", name)
	return nil
}
