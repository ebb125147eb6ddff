package scale

import (
	"context"
	"errors"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/oxide/internal/artifacts"
	"github.com/imamik/oxide/internal/config"
	"github.com/imamik/oxide/internal/fault"
	"github.com/imamik/oxide/internal/k8s"
	hcloud_internal "github.com/imamik/oxide/internal/platform/hcloud"
	"github.com/imamik/oxide/internal/platform/talos"
	"github.com/imamik/oxide/internal/provisioning"
	"github.com/imamik/oxide/internal/provisioning/compute"
)

// fakeNodes answers every node with state unless it was deleted.
type fakeNodes struct {
	mu        sync.Mutex
	state     k8s.NodeState
	deleteErr error
	deleted   []string
}

func (f *fakeNodes) GetNodeState(_ context.Context, name string) (k8s.NodeState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.deleted {
		if d == name {
			return k8s.NodeState{}, nil
		}
	}
	return f.state, nil
}

func (f *fakeNodes) DeleteNode(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, name)
	return nil
}

func (f *fakeNodes) setState(s k8s.NodeState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = s
}

var (
	readyNode    = k8s.NodeState{Exists: true, Ready: true}
	cordonedNode = k8s.NodeState{Exists: true, Unschedulable: true}
)

type testEnv struct {
	ctx      *provisioning.Context
	cloud    *hcloud_internal.FakeCloud
	talos    *talos.MockClient
	nodes    *fakeNodes
	observer *provisioning.RecordingObserver
	scaler   *Scaler
}

// newTestEnv creates a demo cluster with three control planes and three
// workers, plus the artifacts create leaves behind.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := testConfig()
	cfg.Workers = cfg.Workers[:1]
	cfg.Talos.HCloudSnapshotID = "4242"

	cloud := hcloud_internal.NewFakeCloud()
	observer := provisioning.NewRecordingObserver()
	repo := artifacts.NewFileStore(t.TempDir())
	ctx := provisioning.NewContext(context.Background(), cfg, cloud, repo, observer)

	w := config.Wait{Timeout: 50 * time.Millisecond, Interval: time.Millisecond}
	ctx.Timeouts = &config.Timeouts{
		NodeReady: w,
		Cordon:    w,
		Reset:     config.Retry{Attempts: 3, Delay: time.Millisecond},
	}

	_, err := cloud.EnsureFirewall(ctx, "demo-firewall", nil, nil)
	require.NoError(t, err)

	ctx.State.ControlPlaneConfig = []byte("controlplane")
	ctx.State.WorkerConfig = []byte("worker")
	require.NoError(t, compute.NewProvisioner().Provision(ctx))
	ctx.State = provisioning.NewState()

	for name, data := range map[string]string{
		artifacts.ControlPlaneYAML: "controlplane",
		artifacts.WorkerYAML:       "worker",
		artifacts.Talosconfig:      "talosconfig",
		artifacts.Kubeconfig:       "kubeconfig",
	} {
		require.NoError(t, repo.Write(name, []byte(data), artifacts.SecretPerm))
	}

	tc := &talos.MockClient{}
	nodes := &fakeNodes{state: readyNode}
	scaler := NewScaler(
		WithTalosClientFactory(func([]byte) (talos.Client, error) { return tc, nil }),
		WithNodeClientFactory(func([]byte) (NodeClient, error) { return nodes, nil }),
	)

	return &testEnv{ctx: ctx, cloud: cloud, talos: tc, nodes: nodes, observer: observer, scaler: scaler}
}

func publicIP(t *testing.T, env *testEnv, name string) string {
	t.Helper()
	nodes, err := ListNodes(env.ctx)
	require.NoError(t, err)
	for _, n := range nodes {
		if n.Name == name {
			return n.PublicIP
		}
	}
	t.Fatalf("node %s not found", name)
	return ""
}

func TestScaleUp_ContinuesOrdinalsAndAppliesFirewall(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	var userData []string
	var mu sync.Mutex
	env.cloud.CreateServerErr = func(opts hcloud_internal.ServerCreateOpts) error {
		mu.Lock()
		defer mu.Unlock()
		userData = append(userData, opts.UserData)
		return nil
	}

	require.NoError(t, env.scaler.Run(env.ctx, Request{Role: provisioning.RoleWorker, Count: 5}))

	assert.Equal(t, []string{
		"demo-control-plane-1", "demo-control-plane-2", "demo-control-plane-3",
		"demo-worker-1", "demo-worker-2", "demo-worker-3", "demo-worker-4", "demo-worker-5",
	}, env.cloud.ServerNames())
	assert.Equal(t, []string{"worker", "worker"}, userData)
	assert.Len(t, env.cloud.AttachedServers("demo-firewall"), 8)
}

func TestScaleUp_WaitsForReady(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.nodes.setState(k8s.NodeState{Exists: true})

	err := env.scaler.Run(env.ctx, Request{Role: provisioning.RoleWorker, Count: 4})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not become ready")
	assert.Contains(t, err.Error(), "demo-worker-4")
}

func TestScaleUp_RequiresExistingCluster(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.ctx.Artifacts = artifacts.NewFileStore(t.TempDir())

	err := env.scaler.Run(env.ctx, Request{Role: provisioning.RoleWorker, Count: 4})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "scaling requires an existing cluster")
	assert.Len(t, env.cloud.ServerNames(), 6)
}

func TestScaleDown_RemovesNewestWorkers(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.nodes.setState(cordonedNode)

	require.NoError(t, env.scaler.Run(env.ctx, Request{Role: provisioning.RoleWorker, Count: 1}))

	assert.Equal(t, []string{
		"demo-control-plane-1", "demo-control-plane-2", "demo-control-plane-3", "demo-worker-1",
	}, env.cloud.ServerNames())
	assert.Equal(t, []string{"demo-worker-3", "demo-worker-2"}, env.nodes.deleted)

	// Nodes are processed one at a time: check, then reset.
	calls := env.talos.Calls()
	require.Len(t, calls, 4)
	assert.Equal(t, "Version", calls[0][:7])
	assert.Equal(t, "Reset", calls[1][:5])
	assert.True(t, env.observer.Contains("node demo-worker-3: RemovedFromCluster -> Deleted"))
}

func TestScaleDown_QuorumGateRunsFirst(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	err := env.scaler.Run(env.ctx, Request{Role: provisioning.RoleControlPlane, Count: 1})

	var qerr *QuorumError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, 1, qerr.MaxRemovable)
	assert.Empty(t, env.talos.Calls())
	assert.Len(t, env.cloud.ServerNames(), 6)
}

func TestScaleDown_EvenControlPlaneCountWarns(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.nodes.setState(cordonedNode)

	require.NoError(t, env.scaler.Run(env.ctx, Request{Role: provisioning.RoleControlPlane, Count: 2}))

	assert.NotContains(t, env.cloud.ServerNames(), "demo-control-plane-3")
	require.NotEmpty(t, env.observer.Warnings())
	assert.Contains(t, env.observer.Warnings()[0], "even")
}

func TestScaleDown_UnreachableNodeAborts(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.nodes.setState(cordonedNode)
	env.talos.VersionFunc = func(context.Context, string) (string, error) {
		return "", fault.Wrap(fault.Transient, "version", syscall.ECONNREFUSED)
	}

	err := env.scaler.Run(env.ctx, Request{Role: provisioning.RoleWorker, Count: 1})

	var rerr *RemovalError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, StateUnreachableAbort, rerr.State)
	assert.Equal(t, "demo-worker-3", rerr.Node)
	assert.Len(t, env.cloud.ServerNames(), 6, "no server may be deleted")
	assert.Empty(t, env.nodes.deleted)
}

func TestScaleDown_TransientResetIsExpected(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.nodes.setState(cordonedNode)
	resets := 0
	env.talos.ResetFunc = func(context.Context, string, bool) error {
		resets++
		return fault.Wrap(fault.Transient, "reset", syscall.ECONNRESET)
	}

	require.NoError(t, env.scaler.Run(env.ctx, Request{Role: provisioning.RoleWorker, Count: 2}))

	assert.Equal(t, 3, resets)
	assert.NotContains(t, env.cloud.ServerNames(), "demo-worker-3")
}

func TestScaleDown_ResetFailureAbortsButDeletesCompletedNodes(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.nodes.setState(cordonedNode)
	failing := publicIP(t, env, "demo-worker-2")
	failedResets := 0
	env.talos.ResetFunc = func(_ context.Context, ip string, _ bool) error {
		if ip == failing {
			failedResets++
			return errors.New("permission denied")
		}
		return nil
	}

	err := env.scaler.Run(env.ctx, Request{Role: provisioning.RoleWorker, Count: 1})

	var rerr *RemovalError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, StateResetFailed, rerr.State)
	assert.Equal(t, 1, failedResets, "non-transient reset errors are not retried")
	assert.Equal(t, []string{
		"demo-control-plane-1", "demo-control-plane-2", "demo-control-plane-3",
		"demo-worker-1", "demo-worker-2",
	}, env.cloud.ServerNames())
}

func TestScaleDown_NodeDeleteFailureContinues(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.nodes.setState(cordonedNode)
	env.nodes.deleteErr = fault.New(fault.NotFound, "delete node", "not found")

	require.NoError(t, env.scaler.Run(env.ctx, Request{Role: provisioning.RoleWorker, Count: 2}))
	assert.Empty(t, env.observer.Warnings())
	assert.NotContains(t, env.cloud.ServerNames(), "demo-worker-3")

	env.nodes.deleteErr = errors.New("forbidden")
	require.NoError(t, env.scaler.Run(env.ctx, Request{Role: provisioning.RoleWorker, Count: 1}))
	assert.NotContains(t, env.cloud.ServerNames(), "demo-worker-2")
	assert.True(t, env.observer.Contains("failed to delete Kubernetes node demo-worker-2"))
}

func TestScaleDown_CordonTimeoutIsWarning(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	require.NoError(t, env.scaler.Run(env.ctx, Request{Role: provisioning.RoleWorker, Count: 2}))

	assert.NotContains(t, env.cloud.ServerNames(), "demo-worker-3")
	assert.True(t, env.observer.Contains("could not confirm node demo-worker-3 is cordoned"))
}

func TestScale_RoundTrip(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	before := env.cloud.ServerNames()

	require.NoError(t, env.scaler.Run(env.ctx, Request{Role: provisioning.RoleWorker, Count: 5}))
	assert.Len(t, env.cloud.ServerNames(), 8)

	env.nodes.setState(cordonedNode)
	require.NoError(t, env.scaler.Run(env.ctx, Request{Role: provisioning.RoleWorker, Count: 3}))

	assert.Equal(t, before, env.cloud.ServerNames())
}

func TestScale_NoChange(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	require.NoError(t, env.scaler.Run(env.ctx, Request{Role: provisioning.RoleWorker, Count: 3}))

	assert.True(t, env.observer.Contains("already has 3 nodes"))
	assert.Empty(t, env.talos.Calls())
}
