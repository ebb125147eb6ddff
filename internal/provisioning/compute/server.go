package compute

import (
	"context"
	"fmt"
	"strconv"

	"github.com/imamik/oxide/internal/config"
	"github.com/imamik/oxide/internal/metrics"
	hcloud_internal "github.com/imamik/oxide/internal/platform/hcloud"
	"github.com/imamik/oxide/internal/provisioning"
	"github.com/imamik/oxide/internal/util/async"
	"github.com/imamik/oxide/internal/util/labels"
	"github.com/imamik/oxide/internal/util/naming"
)

// NodeSpec describes one server to create.
type NodeSpec struct {
	Name       string
	Pool       string
	Role       provisioning.Role
	ServerType string
	Labels     map[string]string // user labels of the pool
}

// ServerEnv holds the cluster-wide inputs every server create needs.
type ServerEnv struct {
	ImageID   int64
	Location  string
	SSHKeyID  int64
	NetworkID int64
}

// PoolSpecs names count servers of a pool starting at firstOrdinal.
// poolSize is the pool's size after creation; a pool of one gets the bare
// "<cluster>-<pool>" name.
func PoolSpecs(cluster string, role provisioning.Role, pool config.NodePool, firstOrdinal, count, poolSize int) []NodeSpec {
	specs := make([]NodeSpec, 0, count)
	for i := 0; i < count; i++ {
		specs = append(specs, NodeSpec{
			Name:       naming.Server(cluster, pool.Name, firstOrdinal+i, poolSize),
			Pool:       pool.Name,
			Role:       role,
			ServerType: pool.ServerType,
			Labels:     pool.Labels,
		})
	}
	return specs
}

// ResolveEnv collects the image, SSH key and network for server creation.
// Resources already in ctx.State are used; otherwise they are looked up by
// name, which is the path scale-up takes.
func ResolveEnv(ctx *provisioning.Context) (ServerEnv, error) {
	cfg := ctx.Config

	if cfg.Talos.HCloudSnapshotID == "" {
		return ServerEnv{}, fmt.Errorf("talos.hcloud_snapshot_id is required: servers boot from a Talos snapshot")
	}
	imageID, err := strconv.ParseInt(cfg.Talos.HCloudSnapshotID, 10, 64)
	if err != nil {
		return ServerEnv{}, fmt.Errorf("invalid talos.hcloud_snapshot_id %q: %w", cfg.Talos.HCloudSnapshotID, err)
	}

	env := ServerEnv{ImageID: imageID, Location: cfg.HCloud.Location}

	key := ctx.State.SSHKey
	if key == nil {
		if key, err = ctx.Infra.GetSSHKey(ctx, naming.SSHKey(cfg.ClusterName)); err != nil {
			return ServerEnv{}, fmt.Errorf("failed to get SSH key: %w", err)
		}
	}
	if key != nil {
		env.SSHKeyID = key.ID
	}

	network := ctx.State.Network
	if network == nil {
		if network, err = ctx.Infra.GetNetwork(ctx, naming.Network(cfg.ClusterName)); err != nil {
			return ServerEnv{}, fmt.Errorf("failed to get network: %w", err)
		}
	}
	if network != nil {
		env.NetworkID = network.ID
	}

	return env, nil
}

// CreateServers creates one server per spec concurrently and returns the
// nodes in spec order. userData maps a role to its machine config. Any
// failed create fails the call; servers that were created are left in
// place for destroy to clean up.
func CreateServers(ctx *provisioning.Context, env ServerEnv, specs []NodeSpec, userData map[provisioning.Role][]byte) ([]provisioning.Node, error) {
	for _, spec := range specs {
		if len(userData[spec.Role]) == 0 {
			return nil, fmt.Errorf("no machine config for role %s", spec.Role)
		}
	}

	nodes, err := async.Map(ctx, specs,
		func(s NodeSpec) string { return s.Name },
		func(c context.Context, spec NodeSpec) (provisioning.Node, error) {
			return createServer(c, ctx, env, spec, userData[spec.Role])
		},
	)
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

func createServer(c context.Context, ctx *provisioning.Context, env ServerEnv, spec NodeSpec, userData []byte) (provisioning.Node, error) {
	ctx.Observer.Printf("[%s] Creating %s server %s...", phase, spec.Role, spec.Name)

	serverLabels := labels.NewLabelBuilder(ctx.Config.ClusterName).
		WithRole(spec.Role.String()).
		WithPool(spec.Pool).
		WithTalosVersion(ctx.Config.Talos.Version).
		Merge(spec.Labels).
		Build()

	server, err := ctx.Infra.CreateServer(c, hcloud_internal.ServerCreateOpts{
		Name:       spec.Name,
		ServerType: spec.ServerType,
		ImageID:    env.ImageID,
		Location:   env.Location,
		SSHKeyID:   env.SSHKeyID,
		NetworkID:  env.NetworkID,
		UserData:   string(userData),
		Labels:     serverLabels,
	})
	if err != nil {
		return provisioning.Node{}, err
	}
	metrics.RecordServerCreated(spec.Role.String())

	node, err := provisioning.NodeFromServer(ctx.Config.ClusterName, server)
	if err != nil {
		return provisioning.Node{}, err
	}
	if node.PublicIP == "" {
		provisioning.LogWarning(ctx.Observer, phase, "server %s has no public IPv4 address", node.Name)
	}
	provisioning.LogResourceCreated(ctx.Observer, phase, "server", node.Name, node.ID, true)
	return node, nil
}

// ApplyFirewall attaches the cluster firewall to nodes in one call. It is
// a no-op when the cluster has no firewall.
func ApplyFirewall(ctx *provisioning.Context, nodes []provisioning.Node) error {
	fw := ctx.State.Firewall
	if fw == nil {
		var err error
		if fw, err = ctx.Infra.GetFirewall(ctx, naming.Firewall(ctx.Config.ClusterName)); err != nil {
			return fmt.Errorf("failed to get firewall: %w", err)
		}
	}
	if fw == nil || len(nodes) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	if err := ctx.Infra.ApplyFirewall(ctx, fw, ids); err != nil {
		return fmt.Errorf("failed to apply firewall %s: %w", fw.Name, err)
	}
	ctx.Observer.Printf("[%s] Applied firewall %s to %d servers", phase, fw.Name, len(ids))
	return nil
}
