package provisioning

import (
	"fmt"

	"github.com/imamik/oxide/internal/artifacts"
	"github.com/imamik/oxide/internal/util/labels"
)

// Role is the Kubernetes role of a node.
type Role int

const (
	RoleControlPlane Role = iota + 1
	RoleWorker
)

// String returns the role label value.
func (r Role) String() string {
	switch r {
	case RoleControlPlane:
		return labels.RoleControlPlane
	case RoleWorker:
		return labels.RoleWorker
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// ParseRole parses a role label value or CLI argument.
func ParseRole(s string) (Role, error) {
	switch s {
	case labels.RoleControlPlane:
		return RoleControlPlane, nil
	case labels.RoleWorker:
		return RoleWorker, nil
	default:
		return 0, fmt.Errorf("invalid role %q: must be %q or %q", s, labels.RoleControlPlane, labels.RoleWorker)
	}
}

// IsControlPlane reports whether r is RoleControlPlane.
func (r Role) IsControlPlane() bool {
	return r == RoleControlPlane
}

// ConfigArtifact names the machine config artifact that joins nodes of this role.
func (r Role) ConfigArtifact() string {
	if r == RoleControlPlane {
		return artifacts.ControlPlaneYAML
	}
	return artifacts.WorkerYAML
}
