package labels

import "testing"

func TestNewLabelBuilder(t *testing.T) {
	t.Parallel()
	labels := NewLabelBuilder("prod").Build()

	if labels[KeyCluster] != "prod" {
		t.Errorf("expected %s=prod, got %q", KeyCluster, labels[KeyCluster])
	}
	if labels[KeyManagedBy] != ManagedByOxide {
		t.Errorf("expected %s=%s, got %q", KeyManagedBy, ManagedByOxide, labels[KeyManagedBy])
	}
	if len(labels) != 2 {
		t.Errorf("expected 2 labels, got %d", len(labels))
	}
}

func TestBuilderChain(t *testing.T) {
	t.Parallel()
	labels := NewLabelBuilder("prod").
		WithRole(RoleControlPlane).
		WithPool("cp").
		WithTalosVersion("v1.7.0").
		Build()

	want := map[string]string{
		KeyCluster:      "prod",
		KeyManagedBy:    ManagedByOxide,
		KeyRole:         RoleControlPlane,
		KeyPool:         "cp",
		KeyTalosVersion: "v1.7.0",
	}
	for k, v := range want {
		if labels[k] != v {
			t.Errorf("expected %s=%q, got %q", k, v, labels[k])
		}
	}
}

func TestMerge_DoesNotOverrideSchema(t *testing.T) {
	t.Parallel()
	labels := NewLabelBuilder("prod").
		WithRole(RoleWorker).
		Merge(map[string]string{"cluster": "other", "env": "staging", "role": "control-plane"}).
		Build()

	if labels[KeyCluster] != "prod" {
		t.Errorf("cluster label overridden: %q", labels[KeyCluster])
	}
	if labels[KeyRole] != RoleWorker {
		t.Errorf("role label overridden: %q", labels[KeyRole])
	}
	if labels["env"] != "staging" {
		t.Errorf("expected env=staging, got %q", labels["env"])
	}
}

func TestBuild_ReturnsCopy(t *testing.T) {
	t.Parallel()
	lb := NewLabelBuilder("prod")
	first := lb.Build()
	first["mutated"] = "yes"

	if _, ok := lb.Build()["mutated"]; ok {
		t.Error("Build must return a copy")
	}
}

func TestClusterSelector(t *testing.T) {
	t.Parallel()
	sel := ClusterSelector("prod")
	if len(sel) != 1 || sel[KeyCluster] != "prod" {
		t.Errorf("unexpected selector %v", sel)
	}
}
