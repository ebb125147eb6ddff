// Package metrics exposes Prometheus metrics for oxide operations.
//
// oxide is a short-lived CLI, so metrics are not served over HTTP. They are
// collected in a private registry and can be written to a node-exporter
// textfile at the end of a command (see WriteTextfile).
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every oxide metric.
var Registry = prometheus.NewRegistry()

var (
	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "oxide",
			Name:      "operations_total",
			Help:      "Total number of CLI operations by operation and result",
		},
		[]string{"operation", "result"},
	)

	operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "oxide",
			Name:      "operation_duration_seconds",
			Help:      "Duration of CLI operations in seconds",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~68min
		},
		[]string{"operation"},
	)

	serversCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "oxide",
			Subsystem: "cluster",
			Name:      "servers_created_total",
			Help:      "Total number of servers created by role",
		},
		[]string{"role"},
	)

	nodesRemovedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "oxide",
			Subsystem: "cluster",
			Name:      "nodes_removed_total",
			Help:      "Total number of nodes removed by scale-down by role",
		},
		[]string{"role"},
	)

	pollDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "oxide",
			Subsystem: "poll",
			Name:      "duration_seconds",
			Help:      "Time spent waiting for asynchronous conditions by result",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 11), // 500ms to ~8.5min
		},
		[]string{"result"},
	)

	hcloudAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "oxide",
			Subsystem: "hcloud",
			Name:      "api_calls_total",
			Help:      "Total number of Hetzner Cloud API calls by operation and result",
		},
		[]string{"operation", "result"},
	)
)

func init() {
	Registry.MustRegister(
		operationsTotal,
		operationDuration,
		serversCreatedTotal,
		nodesRemovedTotal,
		pollDuration,
		hcloudAPICallsTotal,
	)
}

// RecordOperation records the outcome of a top-level command.
func RecordOperation(operation string, err error, duration time.Duration) {
	operationsTotal.WithLabelValues(operation, result(err)).Inc()
	operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordServerCreated counts a created server.
func RecordServerCreated(role string) {
	serversCreatedTotal.WithLabelValues(role).Inc()
}

// RecordNodeRemoved counts a node removed by scale-down.
func RecordNodeRemoved(role string) {
	nodesRemovedTotal.WithLabelValues(role).Inc()
}

// RecordPoll records how long a wait took.
func RecordPoll(err error, duration time.Duration) {
	pollDuration.WithLabelValues(result(err)).Observe(duration.Seconds())
}

// RecordHCloudAPICall records a Hetzner Cloud API call.
func RecordHCloudAPICall(operation string, err error) {
	hcloudAPICallsTotal.WithLabelValues(operation, result(err)).Inc()
}

// WriteTextfile writes all metrics in the Prometheus text format to path.
// The file is written atomically.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
