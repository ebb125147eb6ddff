// Package status reports what a cluster currently consists of.
package status

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/imamik/oxide/internal/addons/cilium"
	"github.com/imamik/oxide/internal/artifacts"
	"github.com/imamik/oxide/internal/k8s"
	"github.com/imamik/oxide/internal/provisioning"
	"github.com/imamik/oxide/internal/util/labels"
)

const phase = "status"

// Inspector reads in-cluster state.
type Inspector interface {
	CNIStatus(ctx context.Context) (string, error)
	ListNodes(ctx context.Context) ([]k8s.NodeInfo, error)
}

// InspectorFactory connects an Inspector with an admin kubeconfig.
type InspectorFactory func(ctx *provisioning.Context, kubeconfig []byte) (Inspector, error)

// Group is the servers of one pool.
type Group struct {
	Role  provisioning.Role
	Pool  string
	Nodes []provisioning.Node
}

// Report is the collected status of a cluster.
type Report struct {
	Cluster string
	Groups  []Group
	Invalid []error // servers with an invalid label schema

	// Set only when a kubeconfig artifact exists.
	Kubernetes bool
	CNI        string
	Nodes      []k8s.NodeInfo
	KubeErr    error
}

// Provisioner prints the status report.
type Provisioner struct {
	out          io.Writer
	newInspector InspectorFactory
}

// NewProvisioner writes reports to out. A nil factory inspects the real
// cluster.
func NewProvisioner(out io.Writer, factory InspectorFactory) *Provisioner {
	if factory == nil {
		factory = KubeInspector
	}
	return &Provisioner{out: out, newInspector: factory}
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return phase
}

// Provision implements the provisioning.Phase interface.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	report, err := p.Collect(ctx)
	if err != nil {
		return err
	}
	_, err = io.WriteString(p.out, Render(report))
	return err
}

// Collect lists the cluster's servers and, when a kubeconfig is available,
// queries the cluster itself. In-cluster failures are reported, not
// returned.
func (p *Provisioner) Collect(ctx *provisioning.Context) (*Report, error) {
	cluster := ctx.Config.ClusterName
	servers, err := ctx.Infra.GetServersByLabel(ctx, labels.ClusterSelector(cluster))
	if err != nil {
		return nil, fmt.Errorf("failed to list cluster servers: %w", err)
	}

	nodes, invalid := provisioning.NodesFromServers(cluster, servers)
	report := &Report{Cluster: cluster, Groups: groupNodes(nodes), Invalid: invalid}

	kubeconfig, err := ctx.Artifacts.Read(artifacts.Kubeconfig)
	if err != nil {
		ctx.Observer.Debugf("[%s] no kubeconfig, skipping in-cluster status: %v", phase, err)
		return report, nil
	}
	report.Kubernetes = true

	inspector, err := p.newInspector(ctx, kubeconfig)
	if err != nil {
		report.KubeErr = err
		return report, nil
	}
	if report.CNI, err = inspector.CNIStatus(ctx); err != nil {
		report.KubeErr = err
		return report, nil
	}
	if report.Nodes, err = inspector.ListNodes(ctx); err != nil {
		report.KubeErr = err
	}
	return report, nil
}

// groupNodes groups sorted nodes by role and pool, control planes first.
func groupNodes(nodes []provisioning.Node) []Group {
	var groups []Group
	for _, n := range nodes {
		if len(groups) > 0 {
			last := &groups[len(groups)-1]
			if last.Role == n.Role && last.Pool == n.Pool {
				last.Nodes = append(last.Nodes, n)
				continue
			}
		}
		groups = append(groups, Group{Role: n.Role, Pool: n.Pool, Nodes: []provisioning.Node{n}})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Role < groups[j].Role
	})
	return groups
}

type kubeInspector struct {
	kube   *k8s.Client
	cilium *cilium.Installer
}

// KubeInspector inspects the cluster through client-go.
func KubeInspector(ctx *provisioning.Context, kubeconfig []byte) (Inspector, error) {
	kube, err := k8s.NewFromKubeconfig(kubeconfig)
	if err != nil {
		return nil, err
	}
	return NewKubeInspector(ctx, kube), nil
}

// NewKubeInspector wraps an existing client.
func NewKubeInspector(ctx *provisioning.Context, kube *k8s.Client) Inspector {
	return &kubeInspector{
		kube:   kube,
		cilium: cilium.NewInstaller(ctx.Config.Cilium, ctx.Config.ControlPlaneCount(), nil, kube),
	}
}

func (k *kubeInspector) CNIStatus(ctx context.Context) (string, error) {
	return k.cilium.Status(ctx)
}

func (k *kubeInspector) ListNodes(ctx context.Context) ([]k8s.NodeInfo, error) {
	return k.kube.ListNodes(ctx)
}
