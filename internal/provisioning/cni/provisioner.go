package cni

import (
	"context"
	"fmt"

	"github.com/imamik/oxide/internal/addons/cilium"
	"github.com/imamik/oxide/internal/addons/helm"
	"github.com/imamik/oxide/internal/k8s"
	"github.com/imamik/oxide/internal/provisioning"
	"github.com/imamik/oxide/internal/util/poll"
)

const phase = "cni"

// Installer installs the CNI and reports its readiness.
type Installer interface {
	Install(ctx context.Context) error
	Ready(ctx context.Context) (bool, error)
}

// NodeLister reports node readiness.
type NodeLister interface {
	AllNodesReady(ctx context.Context) (bool, error)
}

// Factory builds the installer and node lister from an admin kubeconfig.
type Factory func(ctx *provisioning.Context, kubeconfig []byte) (Installer, NodeLister, error)

// Provisioner installs Cilium.
type Provisioner struct {
	factory Factory
}

// NewProvisioner creates a CNI provisioner. A nil factory installs the
// real Cilium chart.
func NewProvisioner(factory Factory) *Provisioner {
	if factory == nil {
		factory = CiliumFactory
	}
	return &Provisioner{factory: factory}
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return phase
}

// Provision implements the provisioning.Phase interface.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	if len(ctx.State.Kubeconfig) == 0 {
		return fmt.Errorf("kubeconfig is required to install the CNI")
	}

	installer, nodes, err := p.factory(ctx, ctx.State.Kubeconfig)
	if err != nil {
		return err
	}

	ctx.Observer.Printf("[%s] Installing Cilium %s...", phase, ctx.Config.Cilium.Version)
	if err := installer.Install(ctx); err != nil {
		return err
	}

	wait := ctx.Timeouts.CNIReady
	if err := poll.UntilTrue(ctx, fmt.Sprintf("[%s] Waiting for Cilium pods to be ready", phase),
		wait.Interval, wait.Timeout, installer.Ready, poll.WithLogger(ctx.Logf)); err != nil {
		return err
	}

	wait = ctx.Timeouts.NodeReady
	return poll.UntilTrue(ctx, fmt.Sprintf("[%s] Waiting for all nodes to be ready", phase),
		wait.Interval, wait.Timeout, nodes.AllNodesReady, poll.WithLogger(ctx.Logf))
}

// CiliumFactory connects to the cluster and returns the Cilium installer.
func CiliumFactory(ctx *provisioning.Context, kubeconfig []byte) (Installer, NodeLister, error) {
	kube, err := k8s.NewFromKubeconfig(kubeconfig)
	if err != nil {
		return nil, nil, err
	}
	charts, err := helm.NewClient(kubeconfig, cilium.Namespace)
	if err != nil {
		return nil, nil, err
	}
	return cilium.NewInstaller(ctx.Config.Cilium, ctx.Config.ControlPlaneCount(), charts, kube), kube, nil
}
