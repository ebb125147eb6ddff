// Package naming derives deterministic Hetzner Cloud resource names.
//
// Names are the idempotency key for create-or-reuse lookups, and server
// names also encode the node pool and ordinal.
package naming

import (
	"fmt"
	"strconv"
	"strings"
)

func Network(cluster string) string {
	return fmt.Sprintf("%s-network", cluster)
}

func Firewall(cluster string) string {
	return fmt.Sprintf("%s-firewall", cluster)
}

func SSHKey(cluster string) string {
	return fmt.Sprintf("%s-oxide", cluster)
}

// Server names a node. A pool created with a single node gets the bare
// "<cluster>-<pool>" name; every other node carries its 1-based ordinal.
func Server(cluster, pool string, ordinal, poolSize int) string {
	if poolSize == 1 && ordinal == 1 {
		return fmt.Sprintf("%s-%s", cluster, pool)
	}
	return fmt.Sprintf("%s-%s-%d", cluster, pool, ordinal)
}

// ParseServer recovers pool and ordinal from a server name. It is the
// fallback for servers without a pool label and is ambiguous for pool names
// that end in "-<digits>"; config validation rejects those.
func ParseServer(cluster, name string) (pool string, ordinal int, ok bool) {
	rest, found := strings.CutPrefix(name, cluster+"-")
	if !found || rest == "" {
		return "", 0, false
	}

	idx := strings.LastIndex(rest, "-")
	if idx > 0 {
		if n, err := strconv.Atoi(rest[idx+1:]); err == nil && n > 0 {
			return rest[:idx], n, true
		}
	}
	return rest, 1, true
}

// Ordinal returns the ordinal encoded in a server name, or 1 for bare names.
func Ordinal(name string) int {
	idx := strings.LastIndex(name, "-")
	if idx < 0 {
		return 1
	}
	n, err := strconv.Atoi(name[idx+1:])
	if err != nil || n <= 0 {
		return 1
	}
	return n
}
