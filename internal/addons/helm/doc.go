// Package helm installs charts programmatically with the Helm v3 SDK.
//
// The client works from in-memory kubeconfig bytes, so nothing is written
// to the user's kubeconfig. Releases are installed without waiting; callers
// poll readiness themselves.
package helm
