package provisioning

import (
	"context"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/oxide/internal/artifacts"
	"github.com/imamik/oxide/internal/config"
	hcloud_internal "github.com/imamik/oxide/internal/platform/hcloud"
)

// State holds the shared results of provisioning phases.
// It is progressively populated as each phase completes and is passed
// to subsequent phases that need earlier results.
type State struct {
	// Infrastructure results (populated by infrastructure provisioner)
	PublicIP string // operator's public IPv4, scopes admin firewall rules
	Network  *hcloud.Network
	Firewall *hcloud.Firewall
	SSHKey   *hcloud.SSHKey

	// Talos machine configs (populated by the config phase)
	ControlPlaneConfig []byte
	WorkerConfig       []byte
	Talosconfig        []byte

	// Compute results (populated by compute provisioner), in creation order
	ControlPlanes []Node
	Workers       []Node

	// Cluster results (populated by cluster bootstrapper)
	Endpoint   string
	Kubeconfig []byte
}

// NewState creates an empty provisioning state.
func NewState() *State {
	return &State{}
}

// ControlPlaneIPs returns the public IPs of all created control planes.
func (s *State) ControlPlaneIPs() []string {
	ips := make([]string, 0, len(s.ControlPlanes))
	for _, n := range s.ControlPlanes {
		if n.PublicIP != "" {
			ips = append(ips, n.PublicIP)
		}
	}
	return ips
}

// ServerIDs returns the IDs of every created server.
func (s *State) ServerIDs() []int64 {
	ids := make([]int64, 0, len(s.ControlPlanes)+len(s.Workers))
	for _, n := range s.ControlPlanes {
		ids = append(ids, n.ID)
	}
	for _, n := range s.Workers {
		ids = append(ids, n.ID)
	}
	return ids
}

// Context wraps all dependencies and state needed for a provisioning phase.
type Context struct {
	context.Context
	Config    *config.ClusterConfig
	State     *State
	Infra     hcloud_internal.InfrastructureManager
	Artifacts artifacts.Repository
	Observer  Observer
	Timeouts  *config.Timeouts
}

// NewContext creates a new provisioning context.
func NewContext(
	ctx context.Context,
	cfg *config.ClusterConfig,
	infra hcloud_internal.InfrastructureManager,
	repo artifacts.Repository,
	observer Observer,
) *Context {
	if observer == nil {
		observer = NewConsoleObserver(false)
	}
	return &Context{
		Context:   ctx,
		Config:    cfg,
		State:     NewState(),
		Infra:     infra,
		Artifacts: repo,
		Observer:  observer,
		Timeouts:  config.LoadTimeouts(),
	}
}

// WithContext returns a shallow copy bound to ctx, for work running under a
// derived context such as a parallel task.
func (c *Context) WithContext(ctx context.Context) *Context {
	cp := *c
	cp.Context = ctx
	return &cp
}

// Logf adapts the observer to printf-style callbacks such as poll.WithLogger.
func (c *Context) Logf(format string, args ...any) {
	c.Observer.Printf(format, args...)
}
