package hcloud

import (
	"context"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// ServerCreateOpts holds all parameters for creating a cluster server.
type ServerCreateOpts struct {
	Name       string
	ServerType string
	ImageID    int64
	Location   string
	SSHKeyID   int64
	NetworkID  int64
	UserData   string
	Labels     map[string]string
}

// ServerProvisioner creates, lists and deletes servers.
type ServerProvisioner interface {
	// CreateServer creates a server, waits for its create action and
	// returns the server as re-fetched after the action finished.
	CreateServer(ctx context.Context, opts ServerCreateOpts) (*hcloud.Server, error)
	// GetServer returns the server or nil if it does not exist.
	GetServer(ctx context.Context, id int64) (*hcloud.Server, error)
	GetServersByLabel(ctx context.Context, labels map[string]string) ([]*hcloud.Server, error)
	// DeleteServer deletes a server. A missing server is not an error.
	DeleteServer(ctx context.Context, id int64) error
}

// FirewallManager defines the interface for managing firewalls.
type FirewallManager interface {
	EnsureFirewall(ctx context.Context, name string, rules []hcloud.FirewallRule, labels map[string]string) (*hcloud.Firewall, error)
	// GetFirewall returns the firewall or nil if it does not exist.
	GetFirewall(ctx context.Context, name string) (*hcloud.Firewall, error)
	ApplyFirewall(ctx context.Context, fw *hcloud.Firewall, serverIDs []int64) error
	// DeleteFirewall returns a fault.Busy error while servers still use it.
	DeleteFirewall(ctx context.Context, name string) error
}

// NetworkManager defines the interface for managing networks.
type NetworkManager interface {
	EnsureNetwork(ctx context.Context, name, ipRange, subnetRange, zone string, labels map[string]string) (*hcloud.Network, error)
	GetNetwork(ctx context.Context, name string) (*hcloud.Network, error)
	DeleteNetwork(ctx context.Context, name string) error
}

// SSHKeyManager defines the interface for managing SSH keys.
type SSHKeyManager interface {
	// EnsureSSHKey returns the existing key by name, or uploads publicKey.
	// created reports whether the key was uploaded by this call.
	EnsureSSHKey(ctx context.Context, name, publicKey string, labels map[string]string) (key *hcloud.SSHKey, created bool, err error)
	GetSSHKey(ctx context.Context, name string) (*hcloud.SSHKey, error)
	DeleteSSHKey(ctx context.Context, name string) error
}

// ActionWaiter waits for asynchronous actions.
type ActionWaiter interface {
	AwaitAction(ctx context.Context, action *hcloud.Action) error
}

// PublicIPResolver discovers the operator's public IPv4 address.
type PublicIPResolver interface {
	GetPublicIP(ctx context.Context) (string, error)
}

// InfrastructureManager combines all infrastructure interfaces.
type InfrastructureManager interface {
	ServerProvisioner
	FirewallManager
	NetworkManager
	SSHKeyManager
	ActionWaiter
	PublicIPResolver
}
