package infrastructure

import (
	"context"
	"fmt"

	"github.com/imamik/oxide/internal/provisioning"
	"github.com/imamik/oxide/internal/util/async"
)

const phase = "infrastructure"

// Provisioner handles infrastructure provisioning (firewall, network, SSH key).
type Provisioner struct{}

// NewProvisioner creates a new infrastructure provisioner.
func NewProvisioner() *Provisioner {
	return &Provisioner{}
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return phase
}

// Provision implements the provisioning.Phase interface. The operator's
// public IP is detected first because the firewall rules depend on it.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	if ctx.State.PublicIP == "" {
		ip, err := ctx.Infra.GetPublicIP(ctx)
		if err != nil {
			return fmt.Errorf("failed to detect public IP: %w", err)
		}
		ctx.State.PublicIP = ip
		ctx.Observer.Printf("[%s] Detected public IP %s", phase, ip)
	}

	tasks := []async.Task{
		{Name: "firewall", Func: func(_ context.Context) error { return p.ProvisionFirewall(ctx) }},
		{Name: "network", Func: func(_ context.Context) error { return p.ProvisionNetwork(ctx) }},
		{Name: "ssh key", Func: func(_ context.Context) error { return p.ProvisionSSHKey(ctx) }},
	}
	return async.RunParallel(ctx, tasks)
}
