package hcloud

import (
	"context"
	"net"
	"sync"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// MockClient is an InfrastructureManager for tests. Each method delegates
// to its Func field when set and otherwise returns a benign default.
// Calls are recorded and safe for concurrent use.
type MockClient struct {
	CreateServerFunc      func(ctx context.Context, opts ServerCreateOpts) (*hcloud.Server, error)
	GetServerFunc         func(ctx context.Context, id int64) (*hcloud.Server, error)
	GetServersByLabelFunc func(ctx context.Context, labels map[string]string) ([]*hcloud.Server, error)
	DeleteServerFunc      func(ctx context.Context, id int64) error

	EnsureFirewallFunc func(ctx context.Context, name string, rules []hcloud.FirewallRule, labels map[string]string) (*hcloud.Firewall, error)
	GetFirewallFunc    func(ctx context.Context, name string) (*hcloud.Firewall, error)
	ApplyFirewallFunc  func(ctx context.Context, fw *hcloud.Firewall, serverIDs []int64) error
	DeleteFirewallFunc func(ctx context.Context, name string) error

	EnsureNetworkFunc func(ctx context.Context, name, ipRange, subnetRange, zone string, labels map[string]string) (*hcloud.Network, error)
	GetNetworkFunc    func(ctx context.Context, name string) (*hcloud.Network, error)
	DeleteNetworkFunc func(ctx context.Context, name string) error

	EnsureSSHKeyFunc func(ctx context.Context, name, publicKey string, labels map[string]string) (*hcloud.SSHKey, bool, error)
	GetSSHKeyFunc    func(ctx context.Context, name string) (*hcloud.SSHKey, error)
	DeleteSSHKeyFunc func(ctx context.Context, name string) error

	AwaitActionFunc func(ctx context.Context, action *hcloud.Action) error
	GetPublicIPFunc func(ctx context.Context) (string, error)

	mu    sync.Mutex
	calls []string
}

var _ InfrastructureManager = (*MockClient)(nil)

func (m *MockClient) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

// Calls returns the method names invoked so far, in order.
func (m *MockClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times the named method was invoked.
func (m *MockClient) CallCount(method string) int {
	n := 0
	for _, c := range m.Calls() {
		if c == method {
			n++
		}
	}
	return n
}

func (m *MockClient) CreateServer(ctx context.Context, opts ServerCreateOpts) (*hcloud.Server, error) {
	m.record("CreateServer")
	if m.CreateServerFunc != nil {
		return m.CreateServerFunc(ctx, opts)
	}
	return &hcloud.Server{
		ID:     1,
		Name:   opts.Name,
		Status: hcloud.ServerStatusRunning,
		Labels: opts.Labels,
		PublicNet: hcloud.ServerPublicNet{
			IPv4: hcloud.ServerPublicNetIPv4{IP: net.ParseIP("127.0.0.1")},
		},
	}, nil
}

func (m *MockClient) GetServer(ctx context.Context, id int64) (*hcloud.Server, error) {
	m.record("GetServer")
	if m.GetServerFunc != nil {
		return m.GetServerFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockClient) GetServersByLabel(ctx context.Context, labels map[string]string) ([]*hcloud.Server, error) {
	m.record("GetServersByLabel")
	if m.GetServersByLabelFunc != nil {
		return m.GetServersByLabelFunc(ctx, labels)
	}
	return nil, nil
}

func (m *MockClient) DeleteServer(ctx context.Context, id int64) error {
	m.record("DeleteServer")
	if m.DeleteServerFunc != nil {
		return m.DeleteServerFunc(ctx, id)
	}
	return nil
}

func (m *MockClient) EnsureFirewall(ctx context.Context, name string, rules []hcloud.FirewallRule, labels map[string]string) (*hcloud.Firewall, error) {
	m.record("EnsureFirewall")
	if m.EnsureFirewallFunc != nil {
		return m.EnsureFirewallFunc(ctx, name, rules, labels)
	}
	return &hcloud.Firewall{ID: 1, Name: name, Rules: rules, Labels: labels}, nil
}

func (m *MockClient) GetFirewall(ctx context.Context, name string) (*hcloud.Firewall, error) {
	m.record("GetFirewall")
	if m.GetFirewallFunc != nil {
		return m.GetFirewallFunc(ctx, name)
	}
	return nil, nil
}

func (m *MockClient) ApplyFirewall(ctx context.Context, fw *hcloud.Firewall, serverIDs []int64) error {
	m.record("ApplyFirewall")
	if m.ApplyFirewallFunc != nil {
		return m.ApplyFirewallFunc(ctx, fw, serverIDs)
	}
	return nil
}

func (m *MockClient) DeleteFirewall(ctx context.Context, name string) error {
	m.record("DeleteFirewall")
	if m.DeleteFirewallFunc != nil {
		return m.DeleteFirewallFunc(ctx, name)
	}
	return nil
}

func (m *MockClient) EnsureNetwork(ctx context.Context, name, ipRange, subnetRange, zone string, labels map[string]string) (*hcloud.Network, error) {
	m.record("EnsureNetwork")
	if m.EnsureNetworkFunc != nil {
		return m.EnsureNetworkFunc(ctx, name, ipRange, subnetRange, zone, labels)
	}
	_, ipNet, _ := net.ParseCIDR(ipRange)
	return &hcloud.Network{ID: 1, Name: name, IPRange: ipNet, Labels: labels}, nil
}

func (m *MockClient) GetNetwork(ctx context.Context, name string) (*hcloud.Network, error) {
	m.record("GetNetwork")
	if m.GetNetworkFunc != nil {
		return m.GetNetworkFunc(ctx, name)
	}
	return nil, nil
}

func (m *MockClient) DeleteNetwork(ctx context.Context, name string) error {
	m.record("DeleteNetwork")
	if m.DeleteNetworkFunc != nil {
		return m.DeleteNetworkFunc(ctx, name)
	}
	return nil
}

func (m *MockClient) EnsureSSHKey(ctx context.Context, name, publicKey string, labels map[string]string) (*hcloud.SSHKey, bool, error) {
	m.record("EnsureSSHKey")
	if m.EnsureSSHKeyFunc != nil {
		return m.EnsureSSHKeyFunc(ctx, name, publicKey, labels)
	}
	return &hcloud.SSHKey{ID: 1, Name: name, PublicKey: publicKey, Labels: labels}, true, nil
}

func (m *MockClient) GetSSHKey(ctx context.Context, name string) (*hcloud.SSHKey, error) {
	m.record("GetSSHKey")
	if m.GetSSHKeyFunc != nil {
		return m.GetSSHKeyFunc(ctx, name)
	}
	return nil, nil
}

func (m *MockClient) DeleteSSHKey(ctx context.Context, name string) error {
	m.record("DeleteSSHKey")
	if m.DeleteSSHKeyFunc != nil {
		return m.DeleteSSHKeyFunc(ctx, name)
	}
	return nil
}

func (m *MockClient) AwaitAction(ctx context.Context, action *hcloud.Action) error {
	m.record("AwaitAction")
	if m.AwaitActionFunc != nil {
		return m.AwaitActionFunc(ctx, action)
	}
	return nil
}

func (m *MockClient) GetPublicIP(ctx context.Context) (string, error) {
	m.record("GetPublicIP")
	if m.GetPublicIPFunc != nil {
		return m.GetPublicIPFunc(ctx)
	}
	return "203.0.113.10", nil
}
