package compute

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/oxide/internal/artifacts"
	"github.com/imamik/oxide/internal/config"
	hcloud_internal "github.com/imamik/oxide/internal/platform/hcloud"
	"github.com/imamik/oxide/internal/provisioning"
)

func testConfig() *config.ClusterConfig {
	cfg := config.Example()
	cfg.ClusterName = "demo"
	cfg.Talos.HCloudSnapshotID = "4242"
	cfg.ControlPlanes = []config.NodePool{{Name: "cp", ServerType: "cpx21", Count: 3}}
	cfg.Workers = []config.NodePool{
		{Name: "edge", ServerType: "cx22", Count: 1, Labels: map[string]string{"tier": "edge", "cluster": "other"}},
		{Name: "big-workers", ServerType: "cpx41", Count: 2},
	}
	return cfg
}

func createTestContext(t *testing.T, infra hcloud_internal.InfrastructureManager) (*provisioning.Context, *provisioning.RecordingObserver) {
	t.Helper()
	observer := provisioning.NewRecordingObserver()
	ctx := provisioning.NewContext(context.Background(), testConfig(), infra, artifacts.NewFileStore(t.TempDir()), observer)
	ctx.State.ControlPlaneConfig = []byte("cp-config")
	ctx.State.WorkerConfig = []byte("worker-config")
	return ctx, observer
}

func withInfrastructure(t *testing.T, ctx *provisioning.Context, cloud *hcloud_internal.FakeCloud) {
	t.Helper()
	var err error
	ctx.State.Network, err = cloud.EnsureNetwork(ctx, "demo-network", "10.0.0.0/16", "10.0.1.0/24", "eu-central", nil)
	require.NoError(t, err)
	ctx.State.Firewall, err = cloud.EnsureFirewall(ctx, "demo-firewall", nil, nil)
	require.NoError(t, err)
	ctx.State.SSHKey, _, err = cloud.EnsureSSHKey(ctx, "demo-oxide", "ssh-ed25519 AAAA", nil)
	require.NoError(t, err)
}

func TestProvisioner_Name(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "compute", NewProvisioner().Name())
}

func TestProvision_CreatesTopology(t *testing.T) {
	t.Parallel()
	cloud := hcloud_internal.NewFakeCloud()
	ctx, _ := createTestContext(t, cloud)
	withInfrastructure(t, ctx, cloud)

	require.NoError(t, NewProvisioner().Provision(ctx))

	assert.Equal(t, []string{
		"demo-big-workers-1", "demo-big-workers-2",
		"demo-cp-1", "demo-cp-2", "demo-cp-3",
		"demo-edge",
	}, cloud.ServerNames())

	require.Len(t, ctx.State.ControlPlanes, 3)
	require.Len(t, ctx.State.Workers, 3)
	assert.Equal(t, "demo-cp-1", ctx.State.ControlPlanes[0].Name)
	assert.NotEmpty(t, ctx.State.ControlPlanes[0].PrivateIP)
	assert.ElementsMatch(t, ctx.State.ServerIDs(), cloud.AttachedServers("demo-firewall"))

	edge := ctx.State.Workers[0]
	assert.Equal(t, "edge", edge.Pool)
	assert.Equal(t, "edge", edge.Labels["tier"])
	assert.Equal(t, "demo", edge.Labels["cluster"], "user labels must not override the schema")
	assert.Equal(t, "worker", edge.Labels["role"])
	assert.Equal(t, "v1.7.0", edge.Labels["talos-version"])
}

func TestProvision_PassesServerOptions(t *testing.T) {
	t.Parallel()
	var mu sync.Mutex
	var opts []hcloud_internal.ServerCreateOpts

	infra := &hcloud_internal.MockClient{
		CreateServerFunc: func(_ context.Context, o hcloud_internal.ServerCreateOpts) (*hcloud.Server, error) {
			mu.Lock()
			defer mu.Unlock()
			opts = append(opts, o)
			id := int64(len(opts))
			return &hcloud.Server{ID: id, Name: o.Name, Labels: o.Labels}, nil
		},
		GetSSHKeyFunc: func(_ context.Context, name string) (*hcloud.SSHKey, error) {
			return &hcloud.SSHKey{ID: 11, Name: name}, nil
		},
		GetNetworkFunc: func(_ context.Context, name string) (*hcloud.Network, error) {
			return &hcloud.Network{ID: 12, Name: name}, nil
		},
	}
	ctx, observer := createTestContext(t, infra)
	ctx.Config.Workers = nil
	ctx.Config.ControlPlanes = []config.NodePool{{Name: "cp", ServerType: "cpx21", Count: 1}}

	require.NoError(t, NewProvisioner().Provision(ctx))

	require.Len(t, opts, 1)
	assert.Equal(t, hcloud_internal.ServerCreateOpts{
		Name:       "demo-cp",
		ServerType: "cpx21",
		ImageID:    4242,
		Location:   "nbg1",
		SSHKeyID:   11,
		NetworkID:  12,
		UserData:   "cp-config",
		Labels: map[string]string{
			"cluster":       "demo",
			"managed-by":    "oxide",
			"role":          "control-plane",
			"pool":          "cp",
			"talos-version": "v1.7.0",
		},
	}, opts[0])
	assert.Contains(t, observer.Warnings(), "server demo-cp has no public IPv4 address")
	assert.Equal(t, 0, infra.CallCount("ApplyFirewall"), "no firewall, nothing to apply")
}

func TestProvision_AnyFailureFailsCreate(t *testing.T) {
	t.Parallel()
	cloud := hcloud_internal.NewFakeCloud()
	cloud.CreateServerErr = func(opts hcloud_internal.ServerCreateOpts) error {
		if opts.Name == "demo-cp-2" {
			return errors.New("resource_unavailable")
		}
		return nil
	}
	ctx, _ := createTestContext(t, cloud)
	withInfrastructure(t, ctx, cloud)

	err := NewProvisioner().Provision(ctx)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "demo-cp-2: resource_unavailable")
	assert.Len(t, cloud.ServerNames(), 5, "created servers are left for destroy")
	assert.Empty(t, ctx.State.ControlPlanes)
	assert.Empty(t, cloud.AttachedServers("demo-firewall"))
}

func TestResolveEnv_Errors(t *testing.T) {
	t.Parallel()

	ctx, _ := createTestContext(t, hcloud_internal.NewFakeCloud())
	ctx.Config.Talos.HCloudSnapshotID = ""
	_, err := ResolveEnv(ctx)
	assert.ErrorContains(t, err, "talos.hcloud_snapshot_id is required")

	ctx.Config.Talos.HCloudSnapshotID = "talos-v1.7"
	_, err = ResolveEnv(ctx)
	assert.ErrorContains(t, err, "invalid talos.hcloud_snapshot_id")
}

func TestCreateServers_MissingUserData(t *testing.T) {
	t.Parallel()
	cloud := hcloud_internal.NewFakeCloud()
	ctx, _ := createTestContext(t, cloud)

	specs := PoolSpecs("demo", provisioning.RoleWorker, config.NodePool{Name: "w", ServerType: "cx22"}, 1, 1, 1)
	_, err := CreateServers(ctx, ServerEnv{ImageID: 1}, specs, nil)

	assert.ErrorContains(t, err, "no machine config for role worker")
	assert.Empty(t, cloud.ServerNames())
}

func TestPoolSpecs(t *testing.T) {
	t.Parallel()
	pool := config.NodePool{Name: "w", ServerType: "cx22"}

	names := func(specs []NodeSpec) []string {
		var out []string
		for _, s := range specs {
			out = append(out, s.Name)
		}
		return out
	}

	assert.Equal(t, []string{"demo-w"}, names(PoolSpecs("demo", provisioning.RoleWorker, pool, 1, 1, 1)))
	assert.Equal(t, []string{"demo-w-1", "demo-w-2"}, names(PoolSpecs("demo", provisioning.RoleWorker, pool, 1, 2, 2)))
	assert.Equal(t, []string{"demo-w-4", "demo-w-5"}, names(PoolSpecs("demo", provisioning.RoleWorker, pool, 4, 2, 5)))
}
