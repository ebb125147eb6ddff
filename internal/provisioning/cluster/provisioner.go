package cluster

import (
	"context"
	"fmt"

	"github.com/imamik/oxide/internal/artifacts"
	"github.com/imamik/oxide/internal/config"
	"github.com/imamik/oxide/internal/fault"
	"github.com/imamik/oxide/internal/k8s"
	"github.com/imamik/oxide/internal/platform/talos"
	"github.com/imamik/oxide/internal/provisioning"
	"github.com/imamik/oxide/internal/util/async"
	"github.com/imamik/oxide/internal/util/poll"
)

const phase = "cluster"

// TalosClientFactory builds a Talos client from a talosconfig.
type TalosClientFactory func(talosconfig []byte) (talos.Client, error)

// ReachabilityCheck reports whether the Kubernetes API at endpoint answers.
type ReachabilityCheck func(ctx context.Context, endpoint string) (bool, error)

// Provisioner bootstraps the cluster on the created servers.
type Provisioner struct {
	newTalosClient TalosClientFactory
	apiReachable   ReachabilityCheck
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithTalosClientFactory replaces the Talos client constructor.
func WithTalosClientFactory(f TalosClientFactory) Option {
	return func(p *Provisioner) {
		p.newTalosClient = f
	}
}

// WithReachabilityCheck replaces the API server reachability probe.
func WithReachabilityCheck(f ReachabilityCheck) Option {
	return func(p *Provisioner) {
		p.apiReachable = f
	}
}

// NewProvisioner creates a new cluster provisioner.
func NewProvisioner(opts ...Option) *Provisioner {
	p := &Provisioner{
		newTalosClient: func(talosconfig []byte) (talos.Client, error) {
			return talos.NewRealClient(talosconfig)
		},
		apiReachable: k8s.APIServerReachable,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return phase
}

// Provision implements the provisioning.Phase interface.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	first, err := firstControlPlane(ctx.State)
	if err != nil {
		return err
	}
	endpoint := clusterEndpoint(ctx.Config, first)

	talosconfig, err := talos.WithEndpoints(ctx.State.Talosconfig, ctx.State.ControlPlaneIPs())
	if err != nil {
		return fmt.Errorf("failed to configure talosconfig endpoints: %w", err)
	}
	if err := ctx.Artifacts.Write(artifacts.Talosconfig, talosconfig, artifacts.SecretPerm); err != nil {
		return fmt.Errorf("failed to save talosconfig: %w", err)
	}
	ctx.State.Talosconfig = talosconfig

	tc, err := p.newTalosClient(talosconfig)
	if err != nil {
		return err
	}

	if endpoint != ctx.State.Endpoint {
		if err := p.patchEndpoint(ctx, tc, endpoint); err != nil {
			return err
		}
	} else if err := WaitForTalosAPI(ctx, tc, first); err != nil {
		return err
	}
	ctx.State.Endpoint = endpoint

	if err := p.bootstrap(ctx, tc, first); err != nil {
		return err
	}

	wait := ctx.Timeouts.APIServer
	desc := fmt.Sprintf("[%s] Waiting for Kubernetes API at %s", phase, endpoint)
	if err := poll.UntilTrue(ctx, desc, wait.Interval, wait.Timeout, func(c context.Context) (bool, error) {
		return p.apiReachable(c, endpoint)
	}, poll.WithLogger(ctx.Logf)); err != nil {
		return err
	}

	kubeconfig, err := tc.Kubeconfig(ctx, first.PublicIP)
	if err != nil {
		return fmt.Errorf("failed to fetch kubeconfig: %w", err)
	}
	if err := ctx.Artifacts.Write(artifacts.Kubeconfig, kubeconfig, artifacts.SecretPerm); err != nil {
		return fmt.Errorf("failed to save kubeconfig: %w", err)
	}
	ctx.State.Kubeconfig = kubeconfig
	ctx.Observer.Printf("[%s] Kubeconfig saved to %s", phase, ctx.Artifacts.Path(artifacts.Kubeconfig))
	return nil
}

// patchEndpoint rewrites both role configs for the real endpoint, saves
// them so later scale-ups join the right API server, and applies them to
// the running nodes concurrently. Workers are patched as well; with the
// provisional endpoint their kubelet could never register.
func (p *Provisioner) patchEndpoint(ctx *provisioning.Context, tc talos.Client, endpoint string) error {
	ctx.Observer.Printf("[%s] Patching cluster endpoint %s -> %s", phase, ctx.State.Endpoint, endpoint)

	patched := make(map[provisioning.Role][]byte, 2)
	for role, cfg := range map[provisioning.Role][]byte{
		provisioning.RoleControlPlane: ctx.State.ControlPlaneConfig,
		provisioning.RoleWorker:       ctx.State.WorkerConfig,
	} {
		out, err := talos.PatchEndpoint(cfg, endpoint)
		if err != nil {
			return fmt.Errorf("failed to patch %s config: %w", role, err)
		}
		if err := ctx.Artifacts.Write(role.ConfigArtifact(), out, artifacts.SecretPerm); err != nil {
			return fmt.Errorf("failed to save %s: %w", role.ConfigArtifact(), err)
		}
		patched[role] = out
	}
	ctx.State.ControlPlaneConfig = patched[provisioning.RoleControlPlane]
	ctx.State.WorkerConfig = patched[provisioning.RoleWorker]

	nodes := append(append([]provisioning.Node(nil), ctx.State.ControlPlanes...), ctx.State.Workers...)
	tasks := make([]async.Task, 0, len(nodes))
	for _, node := range nodes {
		if node.PublicIP == "" {
			provisioning.LogWarning(ctx.Observer, phase, "cannot patch %s: no public IPv4 address", node.Name)
			continue
		}
		tasks = append(tasks, async.Task{
			Name: node.Name,
			Func: func(c context.Context) error {
				if err := WaitForTalosAPI(ctx.WithContext(c), tc, node); err != nil {
					return err
				}
				if err := tc.ApplyConfig(c, node.PublicIP, patched[node.Role]); err != nil {
					return fmt.Errorf("failed to apply patched config: %w", err)
				}
				ctx.Observer.Printf("[%s] Applied endpoint patch to %s", phase, node.Name)
				return nil
			},
		})
	}
	return async.RunParallel(ctx, tasks)
}

// bootstrap starts etcd on the first control plane. A node that reports
// etcd as already bootstrapped is accepted, which makes re-running create
// safe.
func (p *Provisioner) bootstrap(ctx *provisioning.Context, tc talos.Client, node provisioning.Node) error {
	ctx.Observer.Printf("[%s] Bootstrapping etcd on %s (%s)...", phase, node.Name, node.PublicIP)

	err := tc.Bootstrap(ctx, node.PublicIP)
	switch {
	case err == nil:
		ctx.Observer.Printf("[%s] Bootstrap initiated", phase)
	case fault.IsConflict(err):
		ctx.Observer.Printf("[%s] Cluster is already bootstrapped", phase)
	default:
		return fmt.Errorf("failed to bootstrap %s: %w", node.Name, err)
	}
	return nil
}

// clusterEndpoint prefers the configured endpoint, which may be a DNS name
// or load balancer, over the first control plane's address.
func clusterEndpoint(cfg *config.ClusterConfig, first provisioning.Node) string {
	if cfg.Talos.ClusterEndpoint != "" {
		return cfg.Talos.ClusterEndpoint
	}
	return fmt.Sprintf("https://%s:%d", first.PublicIP, config.KubeAPIPort)
}

func firstControlPlane(state *provisioning.State) (provisioning.Node, error) {
	for _, n := range state.ControlPlanes {
		if n.PublicIP != "" {
			return n, nil
		}
	}
	return provisioning.Node{}, fmt.Errorf("no control plane with a public IPv4 address")
}
