// Package destroy tears a cluster down.
//
// Teardown is idempotent: servers carrying the cluster label are deleted
// first, then the firewall, SSH key and network by their deterministic
// names. Missing resources are skipped, so destroy can be re-run after a
// partial failure or on a cluster that no longer exists.
package destroy
