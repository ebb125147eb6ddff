package talos

import (
	"context"
	"errors"
	"fmt"

	"github.com/siderolabs/talos/pkg/machinery/api/machine"
	"github.com/siderolabs/talos/pkg/machinery/client"
	clientconfig "github.com/siderolabs/talos/pkg/machinery/client/config"

	"github.com/imamik/oxide/internal/fault"
)

// Client is the subset of the Talos API the orchestrator uses. Every
// method targets a single node by IP and returns fault-classified errors.
type Client interface {
	// Version returns the Talos version tag of the node.
	Version(ctx context.Context, ip string) (string, error)
	// ApplyConfig replaces the node's machine config.
	ApplyConfig(ctx context.Context, ip string, data []byte) error
	// Bootstrap starts etcd on the node. Call it once per cluster.
	Bootstrap(ctx context.Context, ip string) error
	// Kubeconfig returns an admin kubeconfig from a control plane node.
	Kubeconfig(ctx context.Context, ip string) ([]byte, error)
	// Reset wipes the node and powers it off. A graceful reset cordons and
	// drains the node and leaves etcd first.
	Reset(ctx context.Context, ip string, graceful bool) error
}

// RealClient implements Client using the Talos machinery client.
type RealClient struct {
	config *clientconfig.Config
}

var _ Client = (*RealClient)(nil)

// NewRealClient creates a client authenticated by talosconfig.
func NewRealClient(talosconfig []byte) (*RealClient, error) {
	cfg, err := clientconfig.FromString(string(talosconfig))
	if err != nil {
		return nil, fmt.Errorf("failed to parse talosconfig: %w", err)
	}
	return &RealClient{config: cfg}, nil
}

// connect opens a client for one node and returns a context targeting it.
func (c *RealClient) connect(ctx context.Context, ip string) (*client.Client, context.Context, error) {
	talosClient, err := client.New(ctx,
		client.WithConfig(c.config),
		client.WithEndpoints(ip),
	)
	if err != nil {
		return nil, nil, classify("connect", fmt.Errorf("failed to create talos client for %s: %w", ip, err))
	}
	return talosClient, client.WithNode(ctx, ip), nil
}

// Version returns the Talos version of the node.
func (c *RealClient) Version(ctx context.Context, ip string) (string, error) {
	talosClient, nodeCtx, err := c.connect(ctx, ip)
	if err != nil {
		return "", err
	}
	defer func() { _ = talosClient.Close() }()

	resp, err := talosClient.Version(nodeCtx)
	if err != nil {
		return "", classify("version", err)
	}
	if len(resp.Messages) == 0 || resp.Messages[0].Version == nil {
		return "", fault.New(fault.Other, "version", "no version information returned")
	}
	return resp.Messages[0].Version.Tag, nil
}

// ApplyConfig applies a machine config in automatic mode; the node reboots
// only if the change requires it.
func (c *RealClient) ApplyConfig(ctx context.Context, ip string, data []byte) error {
	talosClient, nodeCtx, err := c.connect(ctx, ip)
	if err != nil {
		return err
	}
	defer func() { _ = talosClient.Close() }()

	_, err = talosClient.ApplyConfiguration(nodeCtx, &machine.ApplyConfigurationRequest{
		Data: data,
		Mode: machine.ApplyConfigurationRequest_AUTO,
	})
	return classify("apply config", err)
}

// Bootstrap bootstraps etcd on the node.
func (c *RealClient) Bootstrap(ctx context.Context, ip string) error {
	talosClient, nodeCtx, err := c.connect(ctx, ip)
	if err != nil {
		return err
	}
	defer func() { _ = talosClient.Close() }()

	return classify("bootstrap", talosClient.Bootstrap(nodeCtx, &machine.BootstrapRequest{}))
}

// Kubeconfig fetches the admin kubeconfig.
func (c *RealClient) Kubeconfig(ctx context.Context, ip string) ([]byte, error) {
	talosClient, nodeCtx, err := c.connect(ctx, ip)
	if err != nil {
		return nil, err
	}
	defer func() { _ = talosClient.Close() }()

	data, err := talosClient.Kubeconfig(nodeCtx)
	if err != nil {
		return nil, classify("kubeconfig", err)
	}
	if len(data) == 0 {
		return nil, fault.New(fault.Other, "kubeconfig", "empty kubeconfig returned")
	}
	return data, nil
}

// Reset resets the node without reboot, which powers it off.
func (c *RealClient) Reset(ctx context.Context, ip string, graceful bool) error {
	talosClient, nodeCtx, err := c.connect(ctx, ip)
	if err != nil {
		return err
	}
	defer func() { _ = talosClient.Close() }()

	return classify("reset", talosClient.Reset(nodeCtx, graceful, false))
}

// classify tags err with the kind fault.Classify derives from its gRPC
// status or network cause.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var fe *fault.Error
	if errors.As(err, &fe) {
		return err
	}
	return fault.Wrap(fault.Classify(err), op, err)
}
