package k8s

import (
	"context"
	"crypto/tls"
	"net/http"
	"strings"
	"time"
)

// APIServerReachable reports whether the API server at endpoint answers
// GET /version. Unauthorized and forbidden answers count as reachable: the
// server is up and only lacks credentials. Transport failures are not
// errors, they mean "not yet".
func APIServerReachable(ctx context.Context, endpoint string) (bool, error) {
	return apiServerReachable(ctx, insecureHTTPClient, endpoint)
}

// The API server certificate is signed by the cluster CA, which is not
// trusted before a kubeconfig exists.
var insecureHTTPClient = &http.Client{
	Timeout: 10 * time.Second,
	Transport: &http.Transport{
		//nolint:gosec // probing liveness only, no credentials are sent
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	},
}

func apiServerReachable(ctx context.Context, hc *http.Client, endpoint string) (bool, error) {
	url := strings.TrimSuffix(endpoint, "/") + "/version"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}

	resp, err := hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, nil
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusUnauthorized, http.StatusForbidden:
		return true, nil
	default:
		return false, nil
	}
}
