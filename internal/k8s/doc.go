// Package k8s reads node and pod state from the cluster and applies
// manifests with server-side apply.
//
// All errors returned by Client are classified with the fault package:
// missing objects are fault.NotFound, conflicts fault.Conflict and API
// server throttling fault.Busy.
package k8s
