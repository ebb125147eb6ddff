package cluster

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/imamik/oxide/internal/artifacts"
	"github.com/imamik/oxide/internal/config"
	"github.com/imamik/oxide/internal/fault"
	hcloud_internal "github.com/imamik/oxide/internal/platform/hcloud"
	"github.com/imamik/oxide/internal/platform/talos"
	"github.com/imamik/oxide/internal/provisioning"
	"github.com/imamik/oxide/internal/util/poll"
)

var (
	generateOnce sync.Once
	generated    *talos.Artifacts
	generateErr  error
)

// placeholderConfigs generates one set of real machine configs for the
// placeholder endpoint; secret generation is too slow to repeat per test.
func placeholderConfigs(t *testing.T) *talos.Artifacts {
	t.Helper()
	generateOnce.Do(func() {
		sb, err := talos.NewSecrets("v1.7.0")
		if err != nil {
			generateErr = err
			return
		}
		generated, generateErr = talos.NewGenerator("demo", "1.30.0", "v1.7.0", config.PlaceholderEndpoint, sb).Generate()
	})
	require.NoError(t, generateErr)
	return generated
}

func fastTimeouts() *config.Timeouts {
	w := config.Wait{Timeout: 200 * time.Millisecond, Interval: time.Millisecond}
	return &config.Timeouts{TalosAPI: w, APIServer: w, NodeReady: w, CNIReady: w, Cordon: w}
}

func createTestContext(t *testing.T) (*provisioning.Context, *provisioning.RecordingObserver) {
	t.Helper()
	cfg := config.Example()
	cfg.ClusterName = "demo"
	observer := provisioning.NewRecordingObserver()
	ctx := provisioning.NewContext(context.Background(), cfg, hcloud_internal.NewFakeCloud(), artifacts.NewFileStore(t.TempDir()), observer)
	ctx.Timeouts = fastTimeouts()

	a := placeholderConfigs(t)
	ctx.State.ControlPlaneConfig = a.ControlPlane
	ctx.State.WorkerConfig = a.Worker
	ctx.State.Talosconfig = a.Talosconfig
	ctx.State.Endpoint = config.PlaceholderEndpoint
	ctx.State.ControlPlanes = []provisioning.Node{
		{ID: 1, Name: "demo-cp-1", Role: provisioning.RoleControlPlane, PublicIP: "203.0.113.1"},
		{ID: 2, Name: "demo-cp-2", Role: provisioning.RoleControlPlane, PublicIP: "203.0.113.2"},
	}
	ctx.State.Workers = []provisioning.Node{
		{ID: 3, Name: "demo-w", Role: provisioning.RoleWorker, PublicIP: "203.0.113.3"},
	}
	return ctx, observer
}

func endpointOf(t *testing.T, machineConfig []byte) string {
	t.Helper()
	for _, doc := range strings.Split(string(machineConfig), "\n---\n") {
		var m struct {
			Cluster struct {
				ControlPlane struct {
					Endpoint string `yaml:"endpoint"`
				} `yaml:"controlPlane"`
			} `yaml:"cluster"`
		}
		if err := yaml.Unmarshal([]byte(doc), &m); err == nil && m.Cluster.ControlPlane.Endpoint != "" {
			return m.Cluster.ControlPlane.Endpoint
		}
	}
	return ""
}

func newTestProvisioner(tc talos.Client, reachable ReachabilityCheck) *Provisioner {
	if reachable == nil {
		reachable = func(context.Context, string) (bool, error) { return true, nil }
	}
	return NewProvisioner(
		WithTalosClientFactory(func([]byte) (talos.Client, error) { return tc, nil }),
		WithReachabilityCheck(reachable),
	)
}

func TestConfigProvisioner(t *testing.T) {
	t.Parallel()
	ctx, _ := createTestContext(t)
	ctx.State = provisioning.NewState()

	require.NoError(t, NewConfigProvisioner().Provision(ctx))

	assert.Equal(t, config.PlaceholderEndpoint, ctx.State.Endpoint)
	assert.Equal(t, config.PlaceholderEndpoint, endpointOf(t, ctx.State.ControlPlaneConfig))
	for _, name := range []string{artifacts.Secrets, artifacts.ControlPlaneYAML, artifacts.WorkerYAML, artifacts.Talosconfig} {
		assert.True(t, ctx.Artifacts.Exists(name), name)
	}

	secrets, err := ctx.Artifacts.Read(artifacts.Secrets)
	require.NoError(t, err)

	// A second run reuses the secrets bundle.
	require.NoError(t, NewConfigProvisioner().Provision(ctx))
	again, err := ctx.Artifacts.Read(artifacts.Secrets)
	require.NoError(t, err)
	assert.Equal(t, secrets, again)
}

func TestConfigProvisioner_ClusterEndpoint(t *testing.T) {
	t.Parallel()
	ctx, _ := createTestContext(t)
	ctx.Config.Talos.ClusterEndpoint = "https://api.example.com:6443"

	require.NoError(t, NewConfigProvisioner().Provision(ctx))

	assert.Equal(t, "https://api.example.com:6443", endpointOf(t, ctx.State.WorkerConfig))
}

func TestProvision_KeepsConfiguredEndpoint(t *testing.T) {
	t.Parallel()
	ctx, _ := createTestContext(t)
	ctx.Config.Talos.ClusterEndpoint = "https://k8s.example.com:6443"
	require.NoError(t, NewConfigProvisioner().Provision(ctx))

	cpBefore, err := ctx.Artifacts.Read(artifacts.ControlPlaneYAML)
	require.NoError(t, err)
	workerBefore, err := ctx.Artifacts.Read(artifacts.WorkerYAML)
	require.NoError(t, err)

	var mu sync.Mutex
	applied := 0
	tc := &talos.MockClient{
		ApplyConfigFunc: func(context.Context, string, []byte) error {
			mu.Lock()
			defer mu.Unlock()
			applied++
			return nil
		},
		KubeconfigFunc: func(context.Context, string) ([]byte, error) { return []byte("kubeconfig-data"), nil },
	}
	var probed string
	p := newTestProvisioner(tc, func(_ context.Context, endpoint string) (bool, error) {
		probed = endpoint
		return true, nil
	})

	require.NoError(t, p.Provision(ctx))

	assert.Zero(t, applied, "configs already carry the configured endpoint")
	assert.Equal(t, "https://k8s.example.com:6443", ctx.State.Endpoint)
	assert.Equal(t, "https://k8s.example.com:6443", probed)

	cpAfter, err := ctx.Artifacts.Read(artifacts.ControlPlaneYAML)
	require.NoError(t, err)
	workerAfter, err := ctx.Artifacts.Read(artifacts.WorkerYAML)
	require.NoError(t, err)
	assert.Equal(t, cpBefore, cpAfter)
	assert.Equal(t, workerBefore, workerAfter)
	assert.Equal(t, "https://k8s.example.com:6443", endpointOf(t, workerAfter))
}

func TestProvision_PatchesBootstrapsAndFetchesKubeconfig(t *testing.T) {
	t.Parallel()
	ctx, _ := createTestContext(t)

	var mu sync.Mutex
	applied := map[string]string{}
	tc := &talos.MockClient{
		ApplyConfigFunc: func(_ context.Context, ip string, data []byte) error {
			mu.Lock()
			defer mu.Unlock()
			applied[ip] = string(data)
			return nil
		},
		KubeconfigFunc: func(context.Context, string) ([]byte, error) { return []byte("kubeconfig-data"), nil },
	}
	var probed string
	p := newTestProvisioner(tc, func(_ context.Context, endpoint string) (bool, error) {
		probed = endpoint
		return true, nil
	})

	require.NoError(t, p.Provision(ctx))

	const want = "https://203.0.113.1:6443"
	assert.Equal(t, want, ctx.State.Endpoint)
	assert.Equal(t, want, probed)
	assert.Equal(t, want, endpointOf(t, ctx.State.ControlPlaneConfig))
	assert.Equal(t, want, endpointOf(t, ctx.State.WorkerConfig))

	require.Len(t, applied, 3)
	assert.Equal(t, string(ctx.State.ControlPlaneConfig), applied["203.0.113.2"])
	assert.Equal(t, string(ctx.State.WorkerConfig), applied["203.0.113.3"])

	saved, err := ctx.Artifacts.Read(artifacts.ControlPlaneYAML)
	require.NoError(t, err)
	assert.Equal(t, ctx.State.ControlPlaneConfig, saved)

	endpoints, err := talos.Endpoints(ctx.State.Talosconfig)
	require.NoError(t, err)
	assert.Equal(t, []string{"203.0.113.1", "203.0.113.2"}, endpoints)

	kubeconfig, err := ctx.Artifacts.Read(artifacts.Kubeconfig)
	require.NoError(t, err)
	assert.Equal(t, "kubeconfig-data", string(kubeconfig))

	assert.Contains(t, tc.Calls(), "Bootstrap 203.0.113.1")
	assert.NotContains(t, tc.Calls(), "Bootstrap 203.0.113.2")
}

func TestProvision_SkipsPatchWhenEndpointMatches(t *testing.T) {
	t.Parallel()
	ctx, _ := createTestContext(t)
	ctx.State.Endpoint = "https://203.0.113.1:6443"
	tc := &talos.MockClient{}

	require.NoError(t, newTestProvisioner(tc, nil).Provision(ctx))

	for _, call := range tc.Calls() {
		assert.NotContains(t, call, "ApplyConfig")
	}
	assert.Equal(t, config.PlaceholderEndpoint, endpointOf(t, ctx.State.ControlPlaneConfig))
}

func TestProvision_WaitsForTalosAPI(t *testing.T) {
	t.Parallel()
	ctx, _ := createTestContext(t)

	var mu sync.Mutex
	attempts := map[string]int{}
	tc := &talos.MockClient{
		VersionFunc: func(_ context.Context, ip string) (string, error) {
			mu.Lock()
			defer mu.Unlock()
			attempts[ip]++
			if attempts[ip] < 3 {
				return "", fault.Wrap(fault.Transient, "version", errors.New("connection refused"))
			}
			return "v1.7.0", nil
		},
	}

	require.NoError(t, newTestProvisioner(tc, nil).Provision(ctx))
	assert.Equal(t, 3, attempts["203.0.113.1"])
}

func TestProvision_TalosAPIFatalError(t *testing.T) {
	t.Parallel()
	ctx, _ := createTestContext(t)
	tc := &talos.MockClient{
		VersionFunc: func(_ context.Context, ip string) (string, error) {
			if ip == "203.0.113.2" {
				return "", fault.Wrap(fault.Other, "version", errors.New("x509: certificate signed by unknown authority"))
			}
			return "v1.7.0", nil
		},
	}

	err := newTestProvisioner(tc, nil).Provision(ctx)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "demo-cp-2")
	assert.Contains(t, err.Error(), "unknown authority")
	assert.NotContains(t, tc.Calls(), "Bootstrap 203.0.113.1", "bootstrap waits for patching")
}

func TestProvision_AlreadyBootstrapped(t *testing.T) {
	t.Parallel()
	ctx, observer := createTestContext(t)
	tc := &talos.MockClient{
		BootstrapFunc: func(context.Context, string) error {
			return fault.Wrap(fault.Conflict, "bootstrap", errors.New("etcd data directory is not empty"))
		},
	}

	require.NoError(t, newTestProvisioner(tc, nil).Provision(ctx))
	assert.True(t, observer.Contains("already bootstrapped"))
}

func TestProvision_BootstrapFailure(t *testing.T) {
	t.Parallel()
	ctx, _ := createTestContext(t)
	tc := &talos.MockClient{
		BootstrapFunc: func(context.Context, string) error { return errors.New("permission denied") },
	}

	err := newTestProvisioner(tc, nil).Provision(ctx)
	assert.ErrorContains(t, err, "failed to bootstrap demo-cp-1: permission denied")
}

func TestProvision_APIServerTimeout(t *testing.T) {
	t.Parallel()
	ctx, _ := createTestContext(t)
	tc := &talos.MockClient{}

	err := newTestProvisioner(tc, func(context.Context, string) (bool, error) { return false, nil }).Provision(ctx)

	require.Error(t, err)
	assert.True(t, poll.IsTimeout(err))
	assert.Contains(t, err.Error(), "Waiting for Kubernetes API at https://203.0.113.1:6443")
	assert.False(t, ctx.Artifacts.Exists(artifacts.Kubeconfig))
}

func TestProvision_NoControlPlaneIP(t *testing.T) {
	t.Parallel()
	ctx, _ := createTestContext(t)
	for i := range ctx.State.ControlPlanes {
		ctx.State.ControlPlanes[i].PublicIP = ""
	}

	err := newTestProvisioner(&talos.MockClient{}, nil).Provision(ctx)
	assert.ErrorContains(t, err, "no control plane with a public IPv4 address")
}
