// Package s3 provides a client for Hetzner Object Storage (S3-compatible).
//
// It backs the optional artifact mirror: generated secrets, machine configs
// and kubeconfigs are copied under a per-cluster key prefix so that a
// second operator machine can recover them.
package s3
