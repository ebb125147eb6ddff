// Package compute creates the cluster's control plane and worker servers.
//
// Every server is created by its own task and all tasks run concurrently.
// Each server boots the Talos snapshot with the machine config of its role
// as user data, is attached to the cluster network, and carries the label
// schema that lets later commands reconstruct cluster, role and pool
// membership. After all servers exist the firewall is applied to them in a
// single call.
package compute
