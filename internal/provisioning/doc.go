// Package provisioning provides shared types, interfaces, and orchestration for cluster provisioning.
//
// # Subpackages
//
//   - infrastructure/ — Firewall, Network, SSH key
//   - compute/ — Servers and firewall attachment
//   - cluster/ — Talos configuration, endpoint patch, bootstrap, kubeconfig
//   - cni/ — Cilium installation and readiness
//   - destroy/ — Resource cleanup and teardown
//   - scale/ — Adding and quorum-safe removal of nodes
//   - status/ — Cluster status report
//
// # Core Types
//
// Context carries configuration, state, infrastructure client, artifact
// repository, and observer. Phase defines a provisioning step with Name()
// and Provision() methods. State accumulates results from each phase
// (network, firewall, nodes, endpoint, kubeconfig). Node is a server
// recovered from its Hetzner Cloud labels.
package provisioning
