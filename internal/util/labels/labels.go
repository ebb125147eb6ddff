// Package labels defines the label schema oxide puts on Hetzner Cloud
// resources.
//
// oxide keeps no database: cluster membership, node role and node pool are
// recovered from these labels every time servers are listed.
package labels

// Label keys.
const (
	// KeyCluster identifies which cluster a resource belongs to.
	KeyCluster = "cluster"

	// KeyRole identifies the role of a server (control-plane, worker).
	KeyRole = "role"

	// KeyPool identifies the node pool name.
	KeyPool = "pool"

	// KeyManagedBy identifies the management system.
	KeyManagedBy = "managed-by"

	// KeyTalosVersion records the Talos version a server was created with.
	KeyTalosVersion = "talos-version"
)

// Role values
const (
	RoleControlPlane = "control-plane"
	RoleWorker       = "worker"
)

// ManagedByOxide is the managed-by value for every resource oxide creates.
const ManagedByOxide = "oxide"

// LabelBuilder provides a fluent interface for building Hetzner Cloud resource labels.
type LabelBuilder struct {
	labels map[string]string
}

// NewLabelBuilder creates a new label builder with the cluster name and
// manager pre-set.
func NewLabelBuilder(clusterName string) *LabelBuilder {
	return &LabelBuilder{
		labels: map[string]string{
			KeyCluster:   clusterName,
			KeyManagedBy: ManagedByOxide,
		},
	}
}

// WithRole adds a role label (e.g., "control-plane", "worker").
func (lb *LabelBuilder) WithRole(role string) *LabelBuilder {
	lb.labels[KeyRole] = role
	return lb
}

// WithPool adds a pool name label.
func (lb *LabelBuilder) WithPool(pool string) *LabelBuilder {
	lb.labels[KeyPool] = pool
	return lb
}

// WithTalosVersion records the Talos version.
func (lb *LabelBuilder) WithTalosVersion(version string) *LabelBuilder {
	lb.labels[KeyTalosVersion] = version
	return lb
}

// Merge adds user labels. Schema keys already set are not overridden so a
// pool label set cannot detach a server from its cluster.
func (lb *LabelBuilder) Merge(extra map[string]string) *LabelBuilder {
	for k, v := range extra {
		if _, reserved := lb.labels[k]; reserved {
			continue
		}
		lb.labels[k] = v
	}
	return lb
}

// Build returns a copy of the labels map.
func (lb *LabelBuilder) Build() map[string]string {
	result := make(map[string]string, len(lb.labels))
	for k, v := range lb.labels {
		result[k] = v
	}
	return result
}

// ClusterSelector returns the labels that select every resource of a cluster.
func ClusterSelector(clusterName string) map[string]string {
	return map[string]string{KeyCluster: clusterName}
}
