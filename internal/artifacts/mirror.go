package artifacts

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/imamik/oxide/internal/fault"
)

// ObjectStore is the subset of an S3 client the mirror needs.
type ObjectStore interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// restorable lists the artifacts fetched back from the bucket, with the
// permissions they are written with.
var restorable = []struct {
	name string
	perm os.FileMode
}{
	{SSHPrivateKey, SecretPerm},
	{SSHPublicKey, PublicPerm},
	{Secrets, SecretPerm},
	{ControlPlaneYAML, SecretPerm},
	{WorkerYAML, SecretPerm},
	{Talosconfig, SecretPerm},
	{Kubeconfig, SecretPerm},
}

// Mirror copies a cluster's artifacts to an object store.
type Mirror struct {
	store  ObjectStore
	prefix string
}

// NewMirror returns a mirror writing under "<cluster>/".
func NewMirror(store ObjectStore, cluster string) *Mirror {
	return &Mirror{store: store, prefix: cluster + "/"}
}

// Key returns the object key of an artifact.
func (m *Mirror) Key(name string) string {
	return m.prefix + name
}

// Sync uploads every artifact in repo.
func (m *Mirror) Sync(ctx context.Context, repo Repository) error {
	if err := m.store.EnsureBucket(ctx); err != nil {
		return err
	}

	names, err := repo.List()
	if err != nil {
		return err
	}
	for _, name := range names {
		data, err := repo.Read(name)
		if err != nil {
			return err
		}
		if err := m.store.Put(ctx, m.Key(name), data); err != nil {
			return fmt.Errorf("failed to mirror %s: %w", name, err)
		}
	}
	log.Printf("[artifacts] Mirrored %d artifacts to %s", len(names), m.prefix)
	return nil
}

// Restore downloads known artifacts that are missing from repo. Artifacts
// absent from the bucket are skipped. It returns the restored names.
func (m *Mirror) Restore(ctx context.Context, repo Repository) ([]string, error) {
	var restored []string
	for _, a := range restorable {
		if repo.Exists(a.name) {
			continue
		}
		data, err := m.store.Get(ctx, m.Key(a.name))
		if err != nil {
			if fault.IsNotFound(err) {
				continue
			}
			return restored, fmt.Errorf("failed to restore %s: %w", a.name, err)
		}
		if err := repo.Write(a.name, data, a.perm); err != nil {
			return restored, err
		}
		restored = append(restored, a.name)
	}
	if len(restored) > 0 {
		log.Printf("[artifacts] Restored %d artifacts from %s", len(restored), m.prefix)
	}
	return restored, nil
}

// Purge deletes the cluster's prefix from the bucket.
func (m *Mirror) Purge(ctx context.Context) error {
	n, err := m.store.DeletePrefix(ctx, m.prefix)
	if err != nil {
		return fmt.Errorf("failed to purge mirrored artifacts: %w", err)
	}
	log.Printf("[artifacts] Deleted %d mirrored artifacts", n)
	return nil
}
