package config

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"

	"github.com/blang/semver/v4"
)

var (
	// clusterNameRegex is an RFC 1123 label, capped so derived names stay
	// within Hetzner's 63 character limit.
	clusterNameRegex = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,30}[a-z0-9])?$`)
	poolNameRegex    = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]*[a-z0-9])?$`)
	ordinalSuffix    = regexp.MustCompile(`-[0-9]+$`)
)

// Validate checks the configuration and returns every problem found.
func (c *ClusterConfig) Validate() error {
	var errs []error

	if c.ClusterName == "" {
		errs = append(errs, errors.New("cluster_name is required"))
	} else if !clusterNameRegex.MatchString(c.ClusterName) {
		errs = append(errs, fmt.Errorf("cluster_name %q must be 1-32 lowercase alphanumeric characters or hyphens", c.ClusterName))
	}

	if c.HCloud.Location == "" {
		errs = append(errs, errors.New("hcloud.location is required"))
	}

	if len(c.ControlPlanes) == 0 {
		errs = append(errs, errors.New("at least one control_planes pool is required"))
	}

	seen := make(map[string]bool)
	for _, p := range c.ControlPlanes {
		errs = append(errs, validatePool("control_planes", p, 1, seen)...)
	}
	for _, p := range c.Workers {
		errs = append(errs, validatePool("workers", p, 0, seen)...)
	}

	errs = append(errs, validateNetwork(c.HCloud.Network)...)

	if err := validateVersion("talos.version", c.Talos.Version); err != nil {
		errs = append(errs, err)
	}
	if err := validateVersion("talos.kubernetes_version", c.Talos.KubernetesVersion); err != nil {
		errs = append(errs, err)
	}
	if err := validateVersion("cilium.version", c.Cilium.Version); err != nil {
		errs = append(errs, err)
	}

	if s3 := c.Artifacts.S3; s3 != nil {
		if s3.Endpoint == "" || s3.Bucket == "" {
			errs = append(errs, errors.New("artifacts.s3 requires endpoint and bucket"))
		}
		if s3.AccessKey == "" || s3.SecretKey == "" {
			errs = append(errs, errors.New("artifacts.s3 requires access_key and secret_key"))
		}
	}

	return errors.Join(errs...)
}

func validatePool(section string, p NodePool, minCount int, seen map[string]bool) []error {
	var errs []error
	switch {
	case p.Name == "":
		errs = append(errs, fmt.Errorf("%s: pool name is required", section))
	case !poolNameRegex.MatchString(p.Name):
		errs = append(errs, fmt.Errorf("%s: pool name %q must be lowercase alphanumeric with hyphens", section, p.Name))
	case ordinalSuffix.MatchString(p.Name):
		// Server names append "-<ordinal>"; a pool ending in digits is ambiguous.
		errs = append(errs, fmt.Errorf("%s: pool name %q must not end in a hyphenated number", section, p.Name))
	case seen[p.Name]:
		errs = append(errs, fmt.Errorf("%s: duplicate pool name %q", section, p.Name))
	}
	seen[p.Name] = true

	if p.ServerType == "" {
		errs = append(errs, fmt.Errorf("%s/%s: server_type is required", section, p.Name))
	}
	if p.Count < minCount {
		errs = append(errs, fmt.Errorf("%s/%s: count must be at least %d, got %d", section, p.Name, minCount, p.Count))
	}
	return errs
}

func validateNetwork(n NetworkConfig) []error {
	_, network, err := net.ParseCIDR(n.CIDR)
	if err != nil {
		return []error{fmt.Errorf("hcloud.network.cidr %q is invalid: %w", n.CIDR, err)}
	}
	subnetIP, subnet, err := net.ParseCIDR(n.SubnetCIDR)
	if err != nil {
		return []error{fmt.Errorf("hcloud.network.subnet_cidr %q is invalid: %w", n.SubnetCIDR, err)}
	}

	netOnes, _ := network.Mask.Size()
	subOnes, _ := subnet.Mask.Size()
	if !network.Contains(subnetIP) || subOnes < netOnes {
		return []error{fmt.Errorf("hcloud.network.subnet_cidr %s is not within %s", n.SubnetCIDR, n.CIDR)}
	}
	if n.Zone == "" {
		return []error{errors.New("hcloud.network.zone is required")}
	}
	return nil
}

func validateVersion(field, v string) error {
	if _, err := ParseVersion(v); err != nil {
		return fmt.Errorf("%s %q is not a valid version: %w", field, v, err)
	}
	return nil
}

// ParseVersion parses a semantic version with or without a leading "v".
func ParseVersion(v string) (semver.Version, error) {
	return semver.ParseTolerant(strings.TrimSpace(v))
}
