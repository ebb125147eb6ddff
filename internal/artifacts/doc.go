// Package artifacts stores the files a cluster operation produces: the SSH
// key pair, Talos secrets and machine configs, talosconfig and kubeconfig.
//
// FileStore keeps them in the output directory. Mirror optionally copies
// them to an S3 bucket under a per-cluster prefix and restores them from
// there when the local directory is empty.
package artifacts
