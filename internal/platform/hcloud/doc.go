// Package hcloud is the infrastructure gateway: a thin wrapper around the
// Hetzner Cloud API client that returns classified errors.
//
// # Architecture
//
//   - client.go: gateway interfaces
//   - real_client.go: RealClient construction and public IP discovery
//   - operations.go: generic Ensure and Delete operations
//   - action.go: awaiting asynchronous actions through the poll engine
//   - server.go, firewall.go, network.go, ssh_key.go: resource operations
//   - errors.go: mapping of API error codes to fault kinds
//   - mock_client.go: MockClient for tests in other packages
//
// # Generic Operations
//
// EnsureOperation provides get-or-create semantics keyed on the resource
// name, with optional update or validation of an existing resource. A
// uniqueness conflict during create (another invocation won the race) is
// resolved by fetching the resource again.
//
// DeleteOperation is idempotent: a missing resource is success.
//
// # Errors
//
// Every error leaving this package is a *fault.Error. Callers branch on
// fault.IsNotFound, fault.IsConflict, fault.IsBusy and fault.IsTransient
// instead of inspecting API error codes.
package hcloud
