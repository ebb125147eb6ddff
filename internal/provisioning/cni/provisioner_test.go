package cni

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/oxide/internal/artifacts"
	"github.com/imamik/oxide/internal/config"
	hcloud_internal "github.com/imamik/oxide/internal/platform/hcloud"
	"github.com/imamik/oxide/internal/provisioning"
	"github.com/imamik/oxide/internal/util/poll"
)

type fakeInstaller struct {
	installErr  error
	readyAfter  int
	readyChecks int
	installed   bool
}

func (f *fakeInstaller) Install(context.Context) error {
	f.installed = true
	return f.installErr
}

func (f *fakeInstaller) Ready(context.Context) (bool, error) {
	f.readyChecks++
	return f.readyChecks >= f.readyAfter, nil
}

type fakeNodes struct {
	ready bool
	err   error
}

func (f *fakeNodes) AllNodesReady(context.Context) (bool, error) {
	return f.ready, f.err
}

func createTestContext(t *testing.T) *provisioning.Context {
	t.Helper()
	ctx := provisioning.NewContext(context.Background(), config.Example(), hcloud_internal.NewFakeCloud(),
		artifacts.NewFileStore(t.TempDir()), provisioning.NewRecordingObserver())
	w := config.Wait{Timeout: 100 * time.Millisecond, Interval: time.Millisecond}
	ctx.Timeouts = &config.Timeouts{CNIReady: w, NodeReady: w}
	ctx.State.Kubeconfig = []byte("kubeconfig")
	return ctx
}

func factoryFor(i Installer, n NodeLister) Factory {
	return func(*provisioning.Context, []byte) (Installer, NodeLister, error) {
		return i, n, nil
	}
}

func TestProvisioner_Name(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "cni", NewProvisioner(nil).Name())
}

func TestProvision_WaitsForCiliumThenNodes(t *testing.T) {
	t.Parallel()
	ctx := createTestContext(t)
	installer := &fakeInstaller{readyAfter: 3}

	require.NoError(t, NewProvisioner(factoryFor(installer, &fakeNodes{ready: true})).Provision(ctx))

	assert.True(t, installer.installed)
	assert.Equal(t, 3, installer.readyChecks)
}

func TestProvision_RequiresKubeconfig(t *testing.T) {
	t.Parallel()
	ctx := createTestContext(t)
	ctx.State.Kubeconfig = nil

	err := NewProvisioner(factoryFor(&fakeInstaller{}, &fakeNodes{})).Provision(ctx)
	assert.ErrorContains(t, err, "kubeconfig is required")
}

func TestProvision_InstallFailure(t *testing.T) {
	t.Parallel()
	ctx := createTestContext(t)
	installer := &fakeInstaller{installErr: errors.New("chart not found")}

	err := NewProvisioner(factoryFor(installer, &fakeNodes{ready: true})).Provision(ctx)

	assert.ErrorContains(t, err, "chart not found")
	assert.Zero(t, installer.readyChecks)
}

func TestProvision_NodesNeverReady(t *testing.T) {
	t.Parallel()
	ctx := createTestContext(t)

	err := NewProvisioner(factoryFor(&fakeInstaller{readyAfter: 1}, &fakeNodes{})).Provision(ctx)

	require.Error(t, err)
	assert.True(t, poll.IsTimeout(err))
	assert.Contains(t, err.Error(), "Waiting for all nodes to be ready")
}

func TestProvision_NodeListError(t *testing.T) {
	t.Parallel()
	ctx := createTestContext(t)

	err := NewProvisioner(factoryFor(&fakeInstaller{readyAfter: 1}, &fakeNodes{err: errors.New("unauthorized")})).Provision(ctx)

	assert.ErrorContains(t, err, "unauthorized")
	assert.False(t, poll.IsTimeout(err))
}
