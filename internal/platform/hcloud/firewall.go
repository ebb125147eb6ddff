package hcloud

import (
	"context"
	"fmt"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// EnsureFirewall ensures that a firewall exists with the given rules. The
// rules of an existing firewall are replaced.
func (c *RealClient) EnsureFirewall(ctx context.Context, name string, rules []hcloud.FirewallRule, labels map[string]string) (*hcloud.Firewall, error) {
	fw, _, err := (&EnsureOperation[*hcloud.Firewall, hcloud.FirewallCreateOpts, hcloud.FirewallSetRulesOpts]{
		Name:         name,
		ResourceType: "firewall",
		Get:          c.client.Firewall.Get,
		Create:       c.createFirewall,
		Update:       c.client.Firewall.SetRules,
		CreateOptsMapper: func() hcloud.FirewallCreateOpts {
			return hcloud.FirewallCreateOpts{
				Name:   name,
				Rules:  rules,
				Labels: labels,
			}
		},
		UpdateOptsMapper: func(_ *hcloud.Firewall) hcloud.FirewallSetRulesOpts {
			return hcloud.FirewallSetRulesOpts{
				Rules: rules,
			}
		},
	}).Execute(ctx, c)
	return fw, err
}

func (c *RealClient) createFirewall(ctx context.Context, opts hcloud.FirewallCreateOpts) (*CreateResult[*hcloud.Firewall], *hcloud.Response, error) {
	res, resp, err := c.client.Firewall.Create(ctx, opts)
	if err != nil {
		return nil, resp, err
	}
	return &CreateResult[*hcloud.Firewall]{
		Resource: res.Firewall,
		Actions:  res.Actions,
	}, resp, nil
}

// GetFirewall returns the firewall with the given name, or nil.
func (c *RealClient) GetFirewall(ctx context.Context, name string) (*hcloud.Firewall, error) {
	fw, _, err := c.client.Firewall.Get(ctx, name)
	if err = classify("get firewall", err); err != nil {
		return nil, fmt.Errorf("failed to get firewall %s: %w", name, err)
	}
	return fw, nil
}

// ApplyFirewall attaches the firewall to all given servers in one request.
func (c *RealClient) ApplyFirewall(ctx context.Context, fw *hcloud.Firewall, serverIDs []int64) error {
	if len(serverIDs) == 0 {
		return nil
	}

	resources := make([]hcloud.FirewallResource, 0, len(serverIDs))
	for _, id := range serverIDs {
		resources = append(resources, hcloud.FirewallResource{
			Type:   hcloud.FirewallResourceTypeServer,
			Server: &hcloud.FirewallResourceServer{ID: id},
		})
	}

	actions, _, err := c.client.Firewall.ApplyResources(ctx, fw, resources)
	if err = classify("apply firewall", err); err != nil {
		return fmt.Errorf("failed to apply firewall %s: %w", fw.Name, err)
	}
	return c.awaitActions(ctx, actions...)
}

// DeleteFirewall deletes the firewall with the given name. While servers
// that use it are still being deleted the error is fault.Busy.
func (c *RealClient) DeleteFirewall(ctx context.Context, name string) error {
	return (&DeleteOperation[*hcloud.Firewall]{
		Name:         name,
		ResourceType: "firewall",
		Get:          c.client.Firewall.Get,
		Delete:       c.client.Firewall.Delete,
	}).Execute(ctx)
}
