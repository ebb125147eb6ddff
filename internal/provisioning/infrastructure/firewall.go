package infrastructure

import (
	"fmt"
	"net"
	"strconv"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/oxide/internal/config"
	"github.com/imamik/oxide/internal/provisioning"
	"github.com/imamik/oxide/internal/util/labels"
	"github.com/imamik/oxide/internal/util/naming"
)

// ProvisionFirewall ensures the cluster firewall. The Talos and Kubernetes
// APIs are reachable only from the operator's IP; HTTP ingress is open.
func (p *Provisioner) ProvisionFirewall(ctx *provisioning.Context) error {
	name := naming.Firewall(ctx.Config.ClusterName)
	ctx.Observer.Printf("[%s] Reconciling firewall %s...", phase, name)

	rules, err := FirewallRules(ctx.State.PublicIP)
	if err != nil {
		return err
	}

	firewallLabels := labels.NewLabelBuilder(ctx.Config.ClusterName).Build()

	fw, err := ctx.Infra.EnsureFirewall(ctx, name, rules, firewallLabels)
	if err != nil {
		return fmt.Errorf("failed to ensure firewall: %w", err)
	}
	ctx.State.Firewall = fw
	ctx.Observer.Printf("[%s] Firewall %s ready (ID: %d)", phase, name, fw.ID)
	return nil
}

// FirewallRules builds the inbound rules for a cluster administered from
// operatorIP.
func FirewallRules(operatorIP string) ([]hcloud.FirewallRule, error) {
	ip := net.ParseIP(operatorIP)
	if ip == nil || ip.To4() == nil {
		return nil, fmt.Errorf("invalid operator IPv4 address %q", operatorIP)
	}
	operator := net.IPNet{IP: ip.To4(), Mask: net.CIDRMask(32, 32)}

	_, anyV4, _ := net.ParseCIDR("0.0.0.0/0")
	_, anyV6, _ := net.ParseCIDR("::/0")

	return []hcloud.FirewallRule{
		tcpRule("Allow Incoming Requests to Talos API", config.TalosAPIPort, operator),
		tcpRule("Allow Incoming Requests to Kube API", config.KubeAPIPort, operator),
		tcpRule("Allow Incoming HTTP", config.IngressPort, *anyV4, *anyV6),
	}, nil
}

func tcpRule(description string, port int, sources ...net.IPNet) hcloud.FirewallRule {
	return hcloud.FirewallRule{
		Description: hcloud.Ptr(description),
		Direction:   hcloud.FirewallRuleDirectionIn,
		Protocol:    hcloud.FirewallRuleProtocolTCP,
		Port:        hcloud.Ptr(strconv.Itoa(port)),
		SourceIPs:   sources,
	}
}
