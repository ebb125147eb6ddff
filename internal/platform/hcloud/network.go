package hcloud

import (
	"context"
	"fmt"
	"net"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/oxide/internal/fault"
)

// EnsureNetwork ensures that a network with a cloud subnet exists. An
// existing network with a different IP range is an error; a missing subnet
// is added.
func (c *RealClient) EnsureNetwork(ctx context.Context, name, ipRange, subnetRange, zone string, labels map[string]string) (*hcloud.Network, error) {
	_, networkNet, err := net.ParseCIDR(ipRange)
	if err != nil {
		return nil, fmt.Errorf("invalid network ip range %q: %w", ipRange, err)
	}
	_, subnetNet, err := net.ParseCIDR(subnetRange)
	if err != nil {
		return nil, fmt.Errorf("invalid subnet ip range %q: %w", subnetRange, err)
	}
	subnet := hcloud.NetworkSubnet{
		Type:        hcloud.NetworkSubnetTypeCloud,
		IPRange:     subnetNet,
		NetworkZone: hcloud.NetworkZone(zone),
	}

	network, created, err := (&EnsureOperation[*hcloud.Network, hcloud.NetworkCreateOpts, any]{
		Name:         name,
		ResourceType: "network",
		Get:          c.client.Network.Get,
		Create:       simpleCreate(c.client.Network.Create),
		Validate: func(network *hcloud.Network) error {
			if network.IPRange.String() != networkNet.String() {
				return fault.New(fault.Conflict, "ensure network",
					fmt.Sprintf("network %s exists but with different IP range %s (expected %s)",
						name, network.IPRange.String(), networkNet.String()))
			}
			return nil
		},
		CreateOptsMapper: func() hcloud.NetworkCreateOpts {
			return hcloud.NetworkCreateOpts{
				Name:    name,
				IPRange: networkNet,
				Subnets: []hcloud.NetworkSubnet{subnet},
				Labels:  labels,
			}
		},
	}).Execute(ctx, c)
	if err != nil || created {
		return network, err
	}

	return network, c.ensureSubnet(ctx, network, subnet)
}

func (c *RealClient) ensureSubnet(ctx context.Context, network *hcloud.Network, subnet hcloud.NetworkSubnet) error {
	for _, s := range network.Subnets {
		if s.IPRange != nil && s.IPRange.String() == subnet.IPRange.String() {
			return nil
		}
	}

	action, _, err := c.client.Network.AddSubnet(ctx, network, hcloud.NetworkAddSubnetOpts{Subnet: subnet})
	if err = classify("add subnet", err); err != nil {
		return fmt.Errorf("failed to add subnet %s to network %s: %w", subnet.IPRange, network.Name, err)
	}
	return c.AwaitAction(ctx, action)
}

// GetNetwork returns the network with the given name, or nil.
func (c *RealClient) GetNetwork(ctx context.Context, name string) (*hcloud.Network, error) {
	network, _, err := c.client.Network.Get(ctx, name)
	if err = classify("get network", err); err != nil {
		return nil, fmt.Errorf("failed to get network %s: %w", name, err)
	}
	return network, nil
}

// DeleteNetwork deletes the network with the given name.
func (c *RealClient) DeleteNetwork(ctx context.Context, name string) error {
	return (&DeleteOperation[*hcloud.Network]{
		Name:         name,
		ResourceType: "network",
		Get:          c.client.Network.Get,
		Delete:       c.client.Network.Delete,
	}).Execute(ctx)
}
