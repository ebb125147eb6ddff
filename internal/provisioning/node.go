package provisioning

import (
	"fmt"
	"sort"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	hcloud_internal "github.com/imamik/oxide/internal/platform/hcloud"
	"github.com/imamik/oxide/internal/util/labels"
	"github.com/imamik/oxide/internal/util/naming"
)

// Node is a cluster server as reconstructed from its Hetzner Cloud labels.
type Node struct {
	ID        int64
	Name      string
	Role      Role
	Pool      string
	PublicIP  string // empty when the server has no public IPv4
	PrivateIP string // empty when the server is not attached to a network
	Status    string
	Labels    map[string]string
}

// NodeFromServer validates the label schema of a listed server. The role
// label is required. The pool comes from the pool label; servers created
// before it existed fall back to parsing the server name, which is only
// unambiguous because pool names may not end in "-<digits>".
func NodeFromServer(cluster string, s *hcloud.Server) (Node, error) {
	if s == nil {
		return Node{}, fmt.Errorf("nil server")
	}
	if got := s.Labels[labels.KeyCluster]; got != cluster {
		return Node{}, fmt.Errorf("server %s: cluster label is %q, want %q", s.Name, got, cluster)
	}

	roleLabel, ok := s.Labels[labels.KeyRole]
	if !ok {
		return Node{}, fmt.Errorf("server %s: missing %q label", s.Name, labels.KeyRole)
	}
	role, err := ParseRole(roleLabel)
	if err != nil {
		return Node{}, fmt.Errorf("server %s: %w", s.Name, err)
	}

	pool := s.Labels[labels.KeyPool]
	if pool == "" {
		parsed, _, ok := naming.ParseServer(cluster, s.Name)
		if !ok {
			return Node{}, fmt.Errorf("server %s: no %q label and name does not start with %q", s.Name, labels.KeyPool, cluster+"-")
		}
		pool = parsed
	}

	return Node{
		ID:        s.ID,
		Name:      s.Name,
		Role:      role,
		Pool:      pool,
		PublicIP:  hcloud_internal.ServerIPv4(s),
		PrivateIP: hcloud_internal.ServerPrivateIP(s),
		Status:    string(s.Status),
		Labels:    s.Labels,
	}, nil
}

// NodesFromServers converts a server listing. Servers that fail the label
// schema are returned separately so callers can warn about them.
func NodesFromServers(cluster string, servers []*hcloud.Server) (nodes []Node, invalid []error) {
	for _, s := range servers {
		n, err := NodeFromServer(cluster, s)
		if err != nil {
			invalid = append(invalid, err)
			continue
		}
		nodes = append(nodes, n)
	}
	SortNodes(nodes)
	return nodes, invalid
}

// Ordinal returns the pool ordinal encoded in the node name.
func (n Node) Ordinal() int {
	return naming.Ordinal(n.Name)
}

// SortNodes orders nodes by pool, then ordinal, then name.
func SortNodes(nodes []Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Pool != nodes[j].Pool {
			return nodes[i].Pool < nodes[j].Pool
		}
		if oi, oj := nodes[i].Ordinal(), nodes[j].Ordinal(); oi != oj {
			return oi < oj
		}
		return nodes[i].Name < nodes[j].Name
	})
}

// FilterNodes returns the nodes of the given role, and pool when non-empty.
func FilterNodes(nodes []Node, role Role, pool string) []Node {
	var out []Node
	for _, n := range nodes {
		if n.Role != role {
			continue
		}
		if pool != "" && n.Pool != pool {
			continue
		}
		out = append(out, n)
	}
	return out
}

// CountRole returns how many nodes have the given role.
func CountRole(nodes []Node, role Role) int {
	count := 0
	for _, n := range nodes {
		if n.Role == role {
			count++
		}
	}
	return count
}
