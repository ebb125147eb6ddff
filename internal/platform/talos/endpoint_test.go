package talos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatchEndpoint(t *testing.T) {
	t.Parallel()

	gen := newTestGenerator(t)
	cp, err := gen.GenerateControlPlaneConfig()
	require.NoError(t, err)

	patched, err := PatchEndpoint(cp, "https://203.0.113.7:6443")
	require.NoError(t, err)

	doc := machineDoc(t, patched)
	assert.Equal(t, "https://203.0.113.7:6443", dig(t, doc, "cluster", "controlPlane", "endpoint"))
	assert.Equal(t, "none", dig(t, doc, "cluster", "network", "cni", "name"), "other settings are preserved")
	assert.Equal(t, "controlplane", dig(t, doc, "machine", "type"))
}

func TestPatchEndpoint_RequiresEndpoint(t *testing.T) {
	t.Parallel()

	_, err := PatchEndpoint([]byte("version: v1alpha1\n"), "")
	assert.ErrorContains(t, err, "endpoint is required")
}

func TestWithEndpoints(t *testing.T) {
	t.Parallel()

	talosconfig, err := newTestGenerator(t).GetClientConfig()
	require.NoError(t, err)

	updated, err := WithEndpoints(talosconfig, []string{"203.0.113.1", "203.0.113.2"})
	require.NoError(t, err)

	endpoints, err := Endpoints(updated)
	require.NoError(t, err)
	assert.Equal(t, []string{"203.0.113.1", "203.0.113.2"}, endpoints)

	_, err = WithEndpoints(talosconfig, nil)
	assert.Error(t, err)

	_, err = NewRealClient(updated)
	assert.NoError(t, err)
}
