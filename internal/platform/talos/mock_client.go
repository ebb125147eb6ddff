package talos

import (
	"context"
	"sync"
)

// MockClient is a Client whose behavior is set per method. Unset methods
// succeed. Calls are recorded as "<Method> <ip>".
type MockClient struct {
	VersionFunc     func(ctx context.Context, ip string) (string, error)
	ApplyConfigFunc func(ctx context.Context, ip string, data []byte) error
	BootstrapFunc   func(ctx context.Context, ip string) error
	KubeconfigFunc  func(ctx context.Context, ip string) ([]byte, error)
	ResetFunc       func(ctx context.Context, ip string, graceful bool) error

	mu    sync.Mutex
	calls []string
}

var _ Client = (*MockClient)(nil)

func (m *MockClient) record(method, ip string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, method+" "+ip)
}

// Calls returns the recorded calls in order.
func (m *MockClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockClient) Version(ctx context.Context, ip string) (string, error) {
	m.record("Version", ip)
	if m.VersionFunc != nil {
		return m.VersionFunc(ctx, ip)
	}
	return "v1.7.0", nil
}

func (m *MockClient) ApplyConfig(ctx context.Context, ip string, data []byte) error {
	m.record("ApplyConfig", ip)
	if m.ApplyConfigFunc != nil {
		return m.ApplyConfigFunc(ctx, ip, data)
	}
	return nil
}

func (m *MockClient) Bootstrap(ctx context.Context, ip string) error {
	m.record("Bootstrap", ip)
	if m.BootstrapFunc != nil {
		return m.BootstrapFunc(ctx, ip)
	}
	return nil
}

func (m *MockClient) Kubeconfig(ctx context.Context, ip string) ([]byte, error) {
	m.record("Kubeconfig", ip)
	if m.KubeconfigFunc != nil {
		return m.KubeconfigFunc(ctx, ip)
	}
	return []byte("apiVersion: v1\nkind: Config\n"), nil
}

func (m *MockClient) Reset(ctx context.Context, ip string, graceful bool) error {
	m.record("Reset", ip)
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, ip, graceful)
	}
	return nil
}
