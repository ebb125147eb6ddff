package config

import (
	"os"
	"strconv"
	"time"
)

// Wait bounds a single polled condition.
type Wait struct {
	Timeout  time.Duration
	Interval time.Duration
}

// Retry bounds a count-limited retry loop.
type Retry struct {
	Attempts int
	Delay    time.Duration
}

// Timeouts holds all configurable wait and retry bounds.
// These values can be customized via environment variables.
type Timeouts struct {
	Action         Wait  // hcloud async action reaching a terminal state
	TalosAPI       Wait  // Talos apid answering Version
	APIServer      Wait  // Kubernetes API server answering /version
	NodeReady      Wait  // all nodes Ready after bootstrap
	Cordon         Wait  // removed node observed unschedulable
	CNIReady       Wait  // Cilium pods Ready
	FirewallDelete Retry // firewall still attached to servers being deleted
	Reset          Retry // transient failures of the Talos reset call
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - OXIDE_TIMEOUT_ACTION / OXIDE_INTERVAL_ACTION (default: 300s / 2s)
//   - OXIDE_TIMEOUT_TALOS_API / OXIDE_INTERVAL_TALOS_API (default: 300s / 5s)
//   - OXIDE_TIMEOUT_API_SERVER / OXIDE_INTERVAL_API_SERVER (default: 300s / 5s)
//   - OXIDE_TIMEOUT_NODE_READY / OXIDE_INTERVAL_NODE_READY (default: 300s / 5s)
//   - OXIDE_TIMEOUT_CORDON / OXIDE_INTERVAL_CORDON (default: 120s / 2s)
//   - OXIDE_TIMEOUT_CNI_READY / OXIDE_INTERVAL_CNI_READY (default: 600s / 10s)
//   - OXIDE_FIREWALL_DELETE_RETRIES / OXIDE_FIREWALL_DELETE_DELAY (default: 12 / 5s)
//   - OXIDE_RESET_RETRIES / OXIDE_RESET_DELAY (default: 3 / 5s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		Action:         loadWait("ACTION", 300*time.Second, 2*time.Second),
		TalosAPI:       loadWait("TALOS_API", 300*time.Second, 5*time.Second),
		APIServer:      loadWait("API_SERVER", 300*time.Second, 5*time.Second),
		NodeReady:      loadWait("NODE_READY", 300*time.Second, 5*time.Second),
		Cordon:         loadWait("CORDON", 120*time.Second, 2*time.Second),
		CNIReady:       loadWait("CNI_READY", 600*time.Second, 10*time.Second),
		FirewallDelete: loadRetry("FIREWALL_DELETE", 12, 5*time.Second),
		Reset:          loadRetry("RESET", 3, 5*time.Second),
	}
}

func loadWait(name string, timeout, interval time.Duration) Wait {
	return Wait{
		Timeout:  parseDuration("OXIDE_TIMEOUT_"+name, timeout),
		Interval: parseDuration("OXIDE_INTERVAL_"+name, interval),
	}
}

func loadRetry(name string, attempts int, delay time.Duration) Retry {
	return Retry{
		Attempts: parseInt("OXIDE_"+name+"_RETRIES", attempts),
		Delay:    parseDuration("OXIDE_"+name+"_DELAY", delay),
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}

	return i
}
