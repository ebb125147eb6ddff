package infrastructure

import (
	"fmt"

	"github.com/imamik/oxide/internal/provisioning"
	"github.com/imamik/oxide/internal/util/labels"
	"github.com/imamik/oxide/internal/util/naming"
)

// ProvisionNetwork ensures the private network and its cloud subnet.
func (p *Provisioner) ProvisionNetwork(ctx *provisioning.Context) error {
	name := naming.Network(ctx.Config.ClusterName)
	netCfg := ctx.Config.HCloud.Network
	ctx.Observer.Printf("[%s] Reconciling network %s (%s)...", phase, name, netCfg.CIDR)

	networkLabels := labels.NewLabelBuilder(ctx.Config.ClusterName).Build()

	network, err := ctx.Infra.EnsureNetwork(ctx, name, netCfg.CIDR, netCfg.SubnetCIDR, netCfg.Zone, networkLabels)
	if err != nil {
		return fmt.Errorf("failed to ensure network: %w", err)
	}
	ctx.State.Network = network
	ctx.Observer.Printf("[%s] Network %s ready (ID: %d)", phase, name, network.ID)
	return nil
}
