package talos

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/imamik/oxide/internal/artifacts"
	"github.com/imamik/oxide/internal/config"
)

const (
	testCluster  = "test-cluster"
	testK8s      = "1.30.0"
	testTalos    = "v1.7.0"
	testEndpoint = "https://127.0.0.1:6443"
)

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	sb, err := NewSecrets(testTalos)
	require.NoError(t, err)
	return NewGenerator(testCluster, testK8s, testTalos, testEndpoint, sb)
}

// machineDoc returns the v1alpha1 document of a generated config.
func machineDoc(t *testing.T, data []byte) map[string]any {
	t.Helper()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc map[string]any
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		if _, ok := doc["machine"]; ok {
			return doc
		}
	}
	t.Fatal("no machine document")
	return nil
}

func dig(t *testing.T, m map[string]any, path ...string) any {
	t.Helper()
	var cur any = m
	for _, p := range path {
		next, ok := cur.(map[string]any)
		require.True(t, ok, "path %v: %q is not a map", path, p)
		cur = next[p]
	}
	return cur
}

func TestGenerateControlPlaneConfig(t *testing.T) {
	t.Parallel()

	data, err := newTestGenerator(t).GenerateControlPlaneConfig()
	require.NoError(t, err)

	doc := machineDoc(t, data)
	assert.Equal(t, "controlplane", dig(t, doc, "machine", "type"))
	assert.Equal(t, InstallDisk, dig(t, doc, "machine", "install", "disk"))
	assert.Equal(t, "ghcr.io/siderolabs/installer:v1.7.0", dig(t, doc, "machine", "install", "image"))
	assert.Equal(t, true, dig(t, doc, "machine", "features", "kubePrism", "enabled"))
	assert.Equal(t, config.KubePrismPort, dig(t, doc, "machine", "features", "kubePrism", "port"))
	assert.Equal(t, "none", dig(t, doc, "cluster", "network", "cni", "name"))
	assert.Equal(t, true, dig(t, doc, "cluster", "proxy", "disabled"))
	assert.Equal(t, testEndpoint, dig(t, doc, "cluster", "controlPlane", "endpoint"))
	assert.NotContains(t, string(data), "\n#", "comments are stripped to fit user data")
}

func TestGenerateWorkerConfig(t *testing.T) {
	t.Parallel()

	data, err := newTestGenerator(t).GenerateWorkerConfig()
	require.NoError(t, err)

	doc := machineDoc(t, data)
	assert.Equal(t, "worker", dig(t, doc, "machine", "type"))
	assert.Equal(t, "none", dig(t, doc, "cluster", "network", "cni", "name"))
}

func TestGenerate_UserPatchesWinOverBuiltIns(t *testing.T) {
	t.Parallel()

	gen := newTestGenerator(t).WithPatches([]map[string]any{
		{"machine": map[string]any{"install": map[string]any{"disk": "/dev/vda"}}},
		{"cluster": map[string]any{"allowSchedulingOnControlPlanes": true}},
	})

	out, err := gen.Generate()
	require.NoError(t, err)

	for _, data := range [][]byte{out.ControlPlane, out.Worker} {
		doc := machineDoc(t, data)
		assert.Equal(t, "/dev/vda", dig(t, doc, "machine", "install", "disk"))
		assert.Equal(t, "ghcr.io/siderolabs/installer:v1.7.0", dig(t, doc, "machine", "install", "image"),
			"sibling keys of a patched map survive")
		assert.Equal(t, true, dig(t, doc, "cluster", "allowSchedulingOnControlPlanes"))
	}
	assert.NotEmpty(t, out.Talosconfig)
}

func TestNewGenerator_NormalizesVersions(t *testing.T) {
	t.Parallel()

	gen := NewGenerator("c", "v1.30.0", "1.7.0", testEndpoint, nil)
	assert.Equal(t, "1.30.0", gen.kubernetesVersion)
	assert.Equal(t, "v1.7.0", gen.talosVersion)

	_, err := gen.GenerateWorkerConfig()
	assert.ErrorContains(t, err, "secrets bundle is required")
}

func TestGenerateWorkerConfig_Endpoint(t *testing.T) {
	t.Parallel()

	data, err := newTestGenerator(t).GenerateWorkerConfig()
	require.NoError(t, err)
	assert.Equal(t, testEndpoint, dig(t, machineDoc(t, data), "cluster", "controlPlane", "endpoint"))
}

func TestGetOrGenerateSecrets(t *testing.T) {
	t.Parallel()

	repo := artifacts.NewFileStore(t.TempDir())

	first, reused, err := GetOrGenerateSecrets(repo, testTalos)
	require.NoError(t, err)
	assert.False(t, reused)
	assert.True(t, repo.Exists(artifacts.Secrets))

	second, reused, err := GetOrGenerateSecrets(repo, testTalos)
	require.NoError(t, err)
	assert.True(t, reused)
	assert.Equal(t, first.Cluster.ID, second.Cluster.ID)
	assert.Equal(t, first.Secrets.BootstrapToken, second.Secrets.BootstrapToken)
}

func TestParseSecrets_Invalid(t *testing.T) {
	t.Parallel()

	_, err := ParseSecrets([]byte("::not yaml"))
	assert.Error(t, err)

	_, err = ParseSecrets([]byte("cluster: null\n"))
	assert.ErrorContains(t, err, "incomplete")
}
