package hcloud

import (
	"context"
	"fmt"
	"net"
	"sort"
	"sync"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/oxide/internal/fault"
)

// FakeCloud is an in-memory InfrastructureManager. Unlike MockClient it
// keeps state, so multi-step flows (create, scale, destroy) can be tested
// against what a previous step left behind.
type FakeCloud struct {
	// CreateServerErr, when set, is consulted before every server create.
	CreateServerErr func(opts ServerCreateOpts) error
	// DeleteFirewallErr, when set, is consulted before every firewall delete.
	DeleteFirewallErr func(name string) error

	PublicIP string

	mu        sync.Mutex
	nextID    int64
	servers   map[int64]*hcloud.Server
	firewalls map[string]*hcloud.Firewall
	networks  map[string]*hcloud.Network
	sshKeys   map[string]*hcloud.SSHKey
	attached  map[int64][]int64 // firewall ID -> server IDs
}

var _ InfrastructureManager = (*FakeCloud)(nil)

// NewFakeCloud returns an empty FakeCloud.
func NewFakeCloud() *FakeCloud {
	return &FakeCloud{
		PublicIP:  "198.51.100.7",
		servers:   make(map[int64]*hcloud.Server),
		firewalls: make(map[string]*hcloud.Firewall),
		networks:  make(map[string]*hcloud.Network),
		sshKeys:   make(map[string]*hcloud.SSHKey),
		attached:  make(map[int64][]int64),
	}
}

func (f *FakeCloud) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *FakeCloud) CreateServer(_ context.Context, opts ServerCreateOpts) (*hcloud.Server, error) {
	if f.CreateServerErr != nil {
		if err := f.CreateServerErr(opts); err != nil {
			return nil, err
		}
	}
	if opts.ImageID == 0 {
		return nil, fmt.Errorf("image is required to create server %s", opts.Name)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, s := range f.servers {
		if s.Name == opts.Name {
			return nil, fault.New(fault.Conflict, "create server", fmt.Sprintf("server name %s is already used", opts.Name))
		}
	}

	id := f.id()
	labels := make(map[string]string, len(opts.Labels))
	for k, v := range opts.Labels {
		labels[k] = v
	}
	s := &hcloud.Server{
		ID:     id,
		Name:   opts.Name,
		Status: hcloud.ServerStatusRunning,
		Labels: labels,
		PublicNet: hcloud.ServerPublicNet{
			IPv4: hcloud.ServerPublicNetIPv4{IP: net.IPv4(203, 0, 113, byte(id))},
		},
	}
	if opts.NetworkID != 0 {
		s.PrivateNet = []hcloud.ServerPrivateNet{{
			Network: &hcloud.Network{ID: opts.NetworkID},
			IP:      net.IPv4(10, 0, 1, byte(id)),
		}}
	}
	f.servers[id] = s
	return s, nil
}

func (f *FakeCloud) GetServer(_ context.Context, id int64) (*hcloud.Server, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.servers[id], nil
}

func (f *FakeCloud) GetServersByLabel(_ context.Context, labels map[string]string) ([]*hcloud.Server, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*hcloud.Server
	for _, s := range f.servers {
		if matches(s.Labels, labels) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *FakeCloud) DeleteServer(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.servers, id)
	for fw, ids := range f.attached {
		kept := ids[:0]
		for _, sid := range ids {
			if sid != id {
				kept = append(kept, sid)
			}
		}
		f.attached[fw] = kept
	}
	return nil
}

func (f *FakeCloud) EnsureFirewall(_ context.Context, name string, rules []hcloud.FirewallRule, labels map[string]string) (*hcloud.Firewall, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fw, ok := f.firewalls[name]; ok {
		fw.Rules = rules
		return fw, nil
	}
	fw := &hcloud.Firewall{ID: f.id(), Name: name, Rules: rules, Labels: labels}
	f.firewalls[name] = fw
	return fw, nil
}

func (f *FakeCloud) GetFirewall(_ context.Context, name string) (*hcloud.Firewall, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.firewalls[name], nil
}

func (f *FakeCloud) ApplyFirewall(_ context.Context, fw *hcloud.Firewall, serverIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range serverIDs {
		if _, ok := f.servers[id]; !ok {
			return fault.New(fault.NotFound, "apply firewall", fmt.Sprintf("server %d not found", id))
		}
	}
	f.attached[fw.ID] = append(f.attached[fw.ID], serverIDs...)
	return nil
}

func (f *FakeCloud) DeleteFirewall(_ context.Context, name string) error {
	if f.DeleteFirewallErr != nil {
		if err := f.DeleteFirewallErr(name); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if fw, ok := f.firewalls[name]; ok && len(f.attached[fw.ID]) > 0 {
		return fault.New(fault.Busy, "delete firewall", fmt.Sprintf("firewall %s is still in use", name))
	}
	delete(f.firewalls, name)
	return nil
}

func (f *FakeCloud) EnsureNetwork(_ context.Context, name, ipRange, subnetRange, zone string, labels map[string]string) (*hcloud.Network, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n, ok := f.networks[name]; ok {
		return n, nil
	}
	_, ipNet, err := net.ParseCIDR(ipRange)
	if err != nil {
		return nil, err
	}
	_, subnet, err := net.ParseCIDR(subnetRange)
	if err != nil {
		return nil, err
	}
	n := &hcloud.Network{
		ID:      f.id(),
		Name:    name,
		IPRange: ipNet,
		Labels:  labels,
		Subnets: []hcloud.NetworkSubnet{{
			Type:        hcloud.NetworkSubnetTypeCloud,
			IPRange:     subnet,
			NetworkZone: hcloud.NetworkZone(zone),
		}},
	}
	f.networks[name] = n
	return n, nil
}

func (f *FakeCloud) GetNetwork(_ context.Context, name string) (*hcloud.Network, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.networks[name], nil
}

func (f *FakeCloud) DeleteNetwork(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.networks, name)
	return nil
}

func (f *FakeCloud) EnsureSSHKey(_ context.Context, name, publicKey string, labels map[string]string) (*hcloud.SSHKey, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if k, ok := f.sshKeys[name]; ok {
		return k, false, nil
	}
	k := &hcloud.SSHKey{ID: f.id(), Name: name, PublicKey: publicKey, Labels: labels}
	f.sshKeys[name] = k
	return k, true, nil
}

func (f *FakeCloud) GetSSHKey(_ context.Context, name string) (*hcloud.SSHKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sshKeys[name], nil
}

func (f *FakeCloud) DeleteSSHKey(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sshKeys, name)
	return nil
}

func (f *FakeCloud) AwaitAction(context.Context, *hcloud.Action) error {
	return nil
}

func (f *FakeCloud) GetPublicIP(context.Context) (string, error) {
	return f.PublicIP, nil
}

// ServerNames returns the names of all servers, sorted.
func (f *FakeCloud) ServerNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.servers))
	for _, s := range f.servers {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return names
}

// AttachedServers returns the server IDs the named firewall is applied to.
func (f *FakeCloud) AttachedServers(firewall string) []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	fw, ok := f.firewalls[firewall]
	if !ok {
		return nil
	}
	return append([]int64(nil), f.attached[fw.ID]...)
}

// Empty reports whether no resources are left.
func (f *FakeCloud) Empty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.servers) == 0 && len(f.firewalls) == 0 && len(f.networks) == 0 && len(f.sshKeys) == 0
}

func matches(have, want map[string]string) bool {
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}
	return true
}
