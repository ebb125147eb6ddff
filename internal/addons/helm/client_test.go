package helm

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/chart"
	"helm.sh/helm/v3/pkg/chartutil"
	kubefake "helm.sh/helm/v3/pkg/kube/fake"
	"helm.sh/helm/v3/pkg/registry"
	"helm.sh/helm/v3/pkg/release"
	"helm.sh/helm/v3/pkg/storage"
	"helm.sh/helm/v3/pkg/storage/driver"
)

func fakeActionConfig(t *testing.T) *action.Configuration {
	t.Helper()
	registryClient, err := registry.NewClient(registry.ClientOptWriter(io.Discard))
	require.NoError(t, err)
	return &action.Configuration{
		Releases:       storage.Init(driver.NewMemory()),
		KubeClient:     &kubefake.PrintingKubeClient{Out: io.Discard},
		Capabilities:   chartutil.DefaultCapabilities,
		RegistryClient: registryClient,
		Log:            func(string, ...any) {},
	}
}

func testChart() *chart.Chart {
	return &chart.Chart{
		Metadata: &chart.Metadata{
			APIVersion: chart.APIVersionV2,
			Name:       "cilium",
			Version:    "1.15.0",
		},
		Templates: []*chart.File{
			{Name: "templates/cm.yaml", Data: []byte("apiVersion: v1\nkind: ConfigMap\nmetadata:\n  name: cilium-config\n")},
		},
	}
}

func TestInstallOrUpgrade(t *testing.T) {
	t.Parallel()

	var loaded []ChartSpec
	client, err := NewClient(nil, "kube-system",
		WithActionConfig(fakeActionConfig(t)),
		WithChartLoader(func(spec ChartSpec) (*chart.Chart, error) {
			loaded = append(loaded, spec)
			return testChart(), nil
		}),
	)
	require.NoError(t, err)

	spec := ChartSpec{Repository: "https://helm.cilium.io/", Name: "cilium", Version: "1.15.0"}
	ctx := context.Background()

	exists, err := client.ReleaseExists("cilium")
	require.NoError(t, err)
	assert.False(t, exists)

	rel, err := client.InstallOrUpgrade(ctx, "cilium", spec, Values{"ipam": Values{"mode": "kubernetes"}})
	require.NoError(t, err)
	assert.Equal(t, 1, rel.Version)
	assert.Equal(t, "kube-system", rel.Namespace)

	rel, err = client.InstallOrUpgrade(ctx, "cilium", spec, Values{})
	require.NoError(t, err)
	assert.Equal(t, 2, rel.Version, "second call upgrades")

	status, err := client.Status("cilium")
	require.NoError(t, err)
	assert.Equal(t, release.StatusDeployed, status)
	assert.Len(t, loaded, 2)
}

func TestInstallOrUpgrade_ChartLoadFails(t *testing.T) {
	t.Parallel()

	client, err := NewClient(nil, "kube-system",
		WithActionConfig(fakeActionConfig(t)),
		WithChartLoader(func(ChartSpec) (*chart.Chart, error) {
			return nil, errors.New("offline")
		}),
	)
	require.NoError(t, err)

	_, err = client.InstallOrUpgrade(context.Background(), "cilium", ChartSpec{Name: "cilium"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load chart cilium")
}

func TestInMemoryRESTClientGetter_InvalidKubeconfig(t *testing.T) {
	t.Parallel()

	g := NewInMemoryRESTClientGetter([]byte("not a kubeconfig"), "kube-system")
	_, err := g.ToRESTConfig()
	assert.Error(t, err)
	_, err = g.ToRESTMapper()
	assert.Error(t, err)
	assert.NotNil(t, g.ToRawKubeConfigLoader())
}
