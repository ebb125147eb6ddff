// Package handlers executes CLI commands.
//
// Each handler loads the configuration, resolves credentials once, builds
// a provisioning.Context and runs the phases of its operation. Clients and
// provisioners are created through package-level factory variables so tests
// can replace them.
package handlers
