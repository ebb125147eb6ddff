package hcloud

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/oxide/internal/config"
	"github.com/imamik/oxide/internal/fault"
)

// DefaultPublicIPURL answers with the caller's IPv4 address as plain text.
const DefaultPublicIPURL = "https://ipv4.icanhazip.com"

// RealClient implements InfrastructureManager using the Hetzner Cloud API.
type RealClient struct {
	client      *hcloud.Client
	timeouts    *config.Timeouts
	httpClient  *http.Client
	publicIPURL string
}

// ClientOption configures a RealClient.
type ClientOption func(*RealClient)

// WithTimeouts sets custom timeouts for the client.
func WithTimeouts(t *config.Timeouts) ClientOption {
	return func(c *RealClient) {
		c.timeouts = t
	}
}

// WithHTTPClient sets a custom HTTP client for external requests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *RealClient) {
		c.httpClient = hc
	}
}

// WithHCloudClient sets a custom hcloud client (useful for testing).
func WithHCloudClient(hc *hcloud.Client) ClientOption {
	return func(c *RealClient) {
		c.client = hc
	}
}

// WithPublicIPURL overrides the public IP discovery endpoint.
func WithPublicIPURL(url string) ClientOption {
	return func(c *RealClient) {
		c.publicIPURL = url
	}
}

// NewRealClient creates a new RealClient with optional configuration.
func NewRealClient(token string, opts ...ClientOption) *RealClient {
	c := &RealClient{
		client:      hcloud.NewClient(hcloud.WithToken(token), hcloud.WithApplication("oxide", "")),
		timeouts:    config.LoadTimeouts(),
		httpClient:  http.DefaultClient,
		publicIPURL: DefaultPublicIPURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetPublicIP returns the public IPv4 address of the host.
func (c *RealClient) GetPublicIP(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.publicIPURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fault.Wrap(fault.Classify(err), "get public ip", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return "", fault.New(fault.Other, "get public ip", fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return "", fmt.Errorf("failed to read public ip: %w", err)
	}

	ip := strings.TrimSpace(string(body))
	if parsed := net.ParseIP(ip); parsed == nil || parsed.To4() == nil {
		return "", fault.New(fault.Other, "get public ip", fmt.Sprintf("%q is not an IPv4 address", ip))
	}
	return ip, nil
}
