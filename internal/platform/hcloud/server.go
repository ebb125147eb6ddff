package hcloud

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/oxide/internal/fault"
)

// CreateServer creates a server, waits for the create action and returns
// the re-fetched server so that its addresses are populated.
func (c *RealClient) CreateServer(ctx context.Context, opts ServerCreateOpts) (*hcloud.Server, error) {
	if opts.ImageID == 0 {
		return nil, fault.New(fault.Other, "create server", "image id is required")
	}

	createOpts := hcloud.ServerCreateOpts{
		Name:             opts.Name,
		ServerType:       &hcloud.ServerType{Name: opts.ServerType},
		Image:            &hcloud.Image{ID: opts.ImageID},
		UserData:         opts.UserData,
		Labels:           opts.Labels,
		StartAfterCreate: hcloud.Ptr(true),
		Automount:        hcloud.Ptr(false),
	}
	if opts.Location != "" {
		createOpts.Location = &hcloud.Location{Name: opts.Location}
	}
	if opts.SSHKeyID != 0 {
		createOpts.SSHKeys = []*hcloud.SSHKey{{ID: opts.SSHKeyID}}
	}
	if opts.NetworkID != 0 {
		createOpts.Networks = []*hcloud.Network{{ID: opts.NetworkID}}
	}

	result, _, err := c.client.Server.Create(ctx, createOpts)
	if err = classify("create server", err); err != nil {
		return nil, fmt.Errorf("failed to create server %s: %w", opts.Name, err)
	}

	actions := append([]*hcloud.Action{result.Action}, result.NextActions...)
	if err := c.awaitActions(ctx, actions...); err != nil {
		return nil, fmt.Errorf("failed to wait for server %s: %w", opts.Name, err)
	}

	server, err := c.GetServer(ctx, result.Server.ID)
	if err != nil {
		return nil, err
	}
	if server == nil {
		return nil, fault.New(fault.NotFound, "get server", fmt.Sprintf("server %s disappeared after creation", opts.Name))
	}
	return server, nil
}

// GetServer returns the server by ID, or nil if it does not exist.
func (c *RealClient) GetServer(ctx context.Context, id int64) (*hcloud.Server, error) {
	server, _, err := c.client.Server.GetByID(ctx, id)
	if err = classify("get server", err); err != nil {
		return nil, fmt.Errorf("failed to get server %d: %w", id, err)
	}
	return server, nil
}

// GetServersByLabel returns all servers matching the given labels.
func (c *RealClient) GetServersByLabel(ctx context.Context, labels map[string]string) ([]*hcloud.Server, error) {
	servers, err := c.client.Server.AllWithOpts(ctx, hcloud.ServerListOpts{
		ListOpts: hcloud.ListOpts{LabelSelector: buildLabelSelector(labels)},
	})
	if err = classify("list servers", err); err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	return servers, nil
}

// DeleteServer deletes the server with the given ID. The delete action is
// not awaited; the server is gone from listings once it completes.
func (c *RealClient) DeleteServer(ctx context.Context, id int64) error {
	_, _, err := c.client.Server.DeleteWithResult(ctx, &hcloud.Server{ID: id})
	if err = classify("delete server", err); err != nil {
		if fault.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to delete server %d: %w", id, err)
	}
	return nil
}

// ServerIPv4 extracts the public IPv4 address from a server, or empty string if not set.
func ServerIPv4(s *hcloud.Server) string {
	if s != nil && s.PublicNet.IPv4.IP != nil && !s.PublicNet.IPv4.IP.IsUnspecified() {
		return s.PublicNet.IPv4.IP.String()
	}
	return ""
}

// ServerPrivateIP returns the address in the first attached private network, or empty string.
func ServerPrivateIP(s *hcloud.Server) string {
	if s != nil && len(s.PrivateNet) > 0 && s.PrivateNet[0].IP != nil {
		return s.PrivateNet[0].IP.String()
	}
	return ""
}

// buildLabelSelector converts a map of labels to a Hetzner Cloud label
// selector string with keys in sorted order.
func buildLabelSelector(labels map[string]string) string {
	parts := make([]string, 0, len(labels))
	for k, v := range labels {
		parts = append(parts, k+"="+v)
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
