package scale

import (
	"fmt"
	"sort"

	"github.com/imamik/oxide/internal/config"
	"github.com/imamik/oxide/internal/provisioning"
)

// Request asks for a pool to be scaled to Count nodes.
type Request struct {
	Role  provisioning.Role
	Pool  string // empty selects the first pool of the role
	Count int
}

// Plan is the resolved change for one pool.
type Plan struct {
	Role    provisioning.Role
	Pool    config.NodePool
	Members []provisioning.Node // current pool members
	Add     int
	Remove  []provisioning.Node
}

// NewPlan resolves req against the config and the current nodes.
func NewPlan(cfg *config.ClusterConfig, nodes []provisioning.Node, req Request) (*Plan, error) {
	if req.Count < 0 {
		return nil, fmt.Errorf("count must not be negative, got %d", req.Count)
	}

	pools := cfg.Pools(req.Role.IsControlPlane())
	if len(pools) == 0 {
		return nil, fmt.Errorf("no %s pools are configured", req.Role)
	}

	pool := pools[0]
	if req.Pool != "" {
		var ok bool
		if pool, ok = cfg.Pool(req.Role.IsControlPlane(), req.Pool); !ok {
			return nil, fmt.Errorf("%s pool %q is not configured", req.Role, req.Pool)
		}
	}

	if req.Role.IsControlPlane() && req.Count == 0 {
		return nil, fmt.Errorf("control plane pool %s must keep at least one node", pool.Name)
	}

	members := provisioning.FilterNodes(nodes, req.Role, pool.Name)
	plan := &Plan{Role: req.Role, Pool: pool, Members: members}

	switch {
	case req.Count > len(members):
		plan.Add = req.Count - len(members)
	case req.Count < len(members):
		plan.Remove = SelectForRemoval(members, len(members)-req.Count)
	}
	return plan, nil
}

// Empty reports whether the pool is already at the requested size.
func (p *Plan) Empty() bool {
	return p.Add == 0 && len(p.Remove) == 0
}

// NextOrdinal is the first ordinal for new nodes. It continues after the
// highest existing ordinal, so names stay unique after removals.
func (p *Plan) NextOrdinal() int {
	highest := 0
	for _, n := range p.Members {
		highest = max(highest, n.Ordinal())
	}
	return highest + 1
}

// SelectForRemoval returns the n newest nodes: highest ordinal first, ties
// broken by name descending.
func SelectForRemoval(nodes []provisioning.Node, n int) []provisioning.Node {
	sorted := append([]provisioning.Node(nil), nodes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if oi, oj := sorted[i].Ordinal(), sorted[j].Ordinal(); oi != oj {
			return oi > oj
		}
		return sorted[i].Name > sorted[j].Name
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:max(n, 0)]
}
