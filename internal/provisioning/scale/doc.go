// Package scale adds nodes to and removes nodes from a running cluster.
//
// Scaling a pool to a target size becomes a Plan: a number of servers to
// add, or a newest-first selection of nodes to remove. Removal is gated on
// etcd quorum before anything is touched, then runs node by node:
//
//	Running -> APICheck -> Resetting -> Cordoned -> RemovedFromCluster -> Deleted
//
// An unreachable Talos API or a non-transient reset error aborts the whole
// scale-down. Confirming the cordon and deleting the Kubernetes node object
// are best effort, because deleting the server is what actually removes it.
package scale
