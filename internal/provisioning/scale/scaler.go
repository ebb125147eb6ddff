package scale

import (
	"context"
	"fmt"

	"github.com/imamik/oxide/internal/k8s"
	"github.com/imamik/oxide/internal/platform/talos"
	"github.com/imamik/oxide/internal/provisioning"
	"github.com/imamik/oxide/internal/provisioning/cluster"
	"github.com/imamik/oxide/internal/util/labels"
)

const phase = "scale"

// NodeClient is the part of the Kubernetes API the scaling protocol uses.
type NodeClient interface {
	GetNodeState(ctx context.Context, name string) (k8s.NodeState, error)
	DeleteNode(ctx context.Context, name string) error
}

// NodeClientFactory builds a NodeClient from a kubeconfig.
type NodeClientFactory func(kubeconfig []byte) (NodeClient, error)

// Scaler changes the size of node pools on a running cluster.
type Scaler struct {
	newTalosClient cluster.TalosClientFactory
	newNodeClient  NodeClientFactory
}

// Option configures a Scaler.
type Option func(*Scaler)

// WithTalosClientFactory replaces the Talos client constructor.
func WithTalosClientFactory(f cluster.TalosClientFactory) Option {
	return func(s *Scaler) {
		s.newTalosClient = f
	}
}

// WithNodeClientFactory replaces the Kubernetes client constructor.
func WithNodeClientFactory(f NodeClientFactory) Option {
	return func(s *Scaler) {
		s.newNodeClient = f
	}
}

// NewScaler returns a Scaler talking to real Talos and Kubernetes APIs.
func NewScaler(opts ...Option) *Scaler {
	s := &Scaler{
		newTalosClient: func(talosconfig []byte) (talos.Client, error) {
			return talos.NewRealClient(talosconfig)
		},
		newNodeClient: func(kubeconfig []byte) (NodeClient, error) {
			return k8s.NewFromKubeconfig(kubeconfig)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run scales the requested pool to req.Count nodes.
func (s *Scaler) Run(ctx *provisioning.Context, req Request) error {
	nodes, err := ListNodes(ctx)
	if err != nil {
		return err
	}

	plan, err := NewPlan(ctx.Config, nodes, req)
	if err != nil {
		return err
	}

	switch {
	case plan.Add > 0:
		ctx.Observer.Printf("[%s] Scaling %s pool %s from %d to %d nodes", phase, plan.Role, plan.Pool.Name, len(plan.Members), req.Count)
		_, err = s.ScaleUp(ctx, plan)
		return err
	case len(plan.Remove) > 0:
		ctx.Observer.Printf("[%s] Scaling %s pool %s from %d to %d nodes", phase, plan.Role, plan.Pool.Name, len(plan.Members), req.Count)
		return s.ScaleDown(ctx, nodes, plan.Remove)
	default:
		ctx.Observer.Printf("[%s] %s pool %s already has %d nodes", phase, plan.Role, plan.Pool.Name, len(plan.Members))
		return nil
	}
}

// ListNodes returns the cluster's current nodes from their server labels.
// Servers with an invalid label schema are reported and left out.
func ListNodes(ctx *provisioning.Context) ([]provisioning.Node, error) {
	servers, err := ctx.Infra.GetServersByLabel(ctx, labels.ClusterSelector(ctx.Config.ClusterName))
	if err != nil {
		return nil, fmt.Errorf("failed to list cluster servers: %w", err)
	}

	nodes, invalid := provisioning.NodesFromServers(ctx.Config.ClusterName, servers)
	for _, err := range invalid {
		provisioning.LogWarning(ctx.Observer, phase, "ignoring server: %v", err)
	}
	return nodes, nil
}

// readArtifact reads an artifact that only exists once the cluster has
// been created.
func readArtifact(ctx *provisioning.Context, name string) ([]byte, error) {
	data, err := ctx.Artifacts.Read(name)
	if err != nil {
		return nil, fmt.Errorf("scaling requires an existing cluster: %s not found in %s: %w",
			name, ctx.Artifacts.Path(""), err)
	}
	return data, nil
}

