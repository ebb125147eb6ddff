package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
cluster_name: demo
control_planes:
  - name: control-plane
    server_type: cpx21
`

func TestParse_AppliesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "nbg1", cfg.HCloud.Location)
	assert.Equal(t, "10.0.0.0/16", cfg.HCloud.Network.CIDR)
	assert.Equal(t, "10.0.1.0/24", cfg.HCloud.Network.SubnetCIDR)
	assert.Equal(t, "eu-central", cfg.HCloud.Network.Zone)
	assert.Equal(t, "v1.7.0", cfg.Talos.Version)
	assert.Equal(t, "1.30.0", cfg.Talos.KubernetesVersion)
	assert.Equal(t, "1.15.0", cfg.Cilium.Version)
	assert.True(t, cfg.Cilium.EnableHubble)
	require.Len(t, cfg.ControlPlanes, 1)
	assert.Equal(t, 1, cfg.ControlPlanes[0].Count)
	assert.Empty(t, cfg.Workers)
}

func TestParse_ExplicitValues(t *testing.T) {
	t.Parallel()

	doc := `
cluster_name: prod
hcloud:
  token: abc
  location: fsn1
talos:
  version: v1.8.1
  config_patches:
    - machine:
        sysctls:
          vm.max_map_count: "262144"
cilium:
  enable_hubble: false
  helm_values:
    debug:
      enabled: true
control_planes:
  - name: cp
    server_type: cpx31
    count: 3
workers:
  - name: general
    server_type: cpx41
    count: 0
    labels:
      tier: batch
`
	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, "abc", cfg.HCloud.Token)
	assert.Equal(t, "fsn1", cfg.HCloud.Location)
	assert.False(t, cfg.Cilium.EnableHubble)
	assert.Equal(t, 3, cfg.ControlPlaneCount())
	require.Len(t, cfg.Talos.ConfigPatches, 1)
	assert.Contains(t, cfg.Talos.ConfigPatches[0], "machine")
	assert.Equal(t, 0, cfg.Workers[0].Count)
	assert.Equal(t, "batch", cfg.Workers[0].Labels["tier"])

	pool, ok := cfg.Pool(false, "general")
	require.True(t, ok)
	assert.Equal(t, "cpx41", pool.ServerType)
	_, ok = cfg.Pool(true, "general")
	assert.False(t, ok)
}

func TestParse_InvalidYAML(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("cluster_name: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoadFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := LoadFile(filepath.Join(t.TempDir(), "cluster.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oxide init")
}

func TestSaveThenLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cluster.yaml")
	require.NoError(t, Save(path, Example()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# oxide cluster configuration")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Example(), cfg)
}

func TestExample(t *testing.T) {
	t.Parallel()

	cfg := Example()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3, cfg.ControlPlaneCount())
	require.Len(t, cfg.Workers, 1)
	assert.Equal(t, "cpx31", cfg.Workers[0].ServerType)
}

func TestResolveCredentials(t *testing.T) {
	t.Parallel()

	env := func(v string) func(string) string {
		return func(key string) string {
			if key == TokenEnvVar {
				return v
			}
			return ""
		}
	}

	tests := []struct {
		name    string
		token   string
		env     string
		want    string
		wantErr bool
	}{
		{name: "config wins", token: "from-file", env: "from-env", want: "from-file"},
		{name: "env fallback", env: "from-env", want: "from-env"},
		{name: "missing", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := &ClusterConfig{HCloud: HCloudConfig{Token: tt.token}}
			creds, err := ResolveCredentials(cfg, env(tt.env))
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), TokenEnvVar)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, creds.HCloudToken)
		})
	}
}
