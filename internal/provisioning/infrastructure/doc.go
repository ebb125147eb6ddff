// Package infrastructure provisions the cluster-wide Hetzner Cloud resources
// that servers depend on: the firewall, the private network, and the SSH key.
//
// The three resources are independent of each other and are ensured
// concurrently. All of them are looked up by their deterministic name first,
// so a repeated create reuses what an earlier run left behind.
package infrastructure
