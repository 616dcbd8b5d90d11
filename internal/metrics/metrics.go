// Package metrics provides Prometheus metrics for LaunchPad.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LaunchesTotal counts launch attempts by item kind and result.
	LaunchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "launchpad",
			Name:      "launches_total",
			Help:      "Total number of item launches",
		},
		[]string{"kind", "result"}, // result: "ok" or an error class
	)

	// LaunchDuration tracks how long a launch takes up to process hand-off.
	LaunchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "launchpad",
			Name:      "launch_duration_seconds",
			Help:      "Launch duration in seconds, excluding the spawned process",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// ReroutesTotal counts auto-route decisions that changed the profile.
	ReroutesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "launchpad",
			Name:      "reroutes_total",
			Help:      "Total number of launches rerouted to another network profile",
		},
		[]string{"from", "to"},
	)

	// HealthProbes counts reachability probes by outcome.
	HealthProbes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "launchpad",
			Name:      "health_probes_total",
			Help:      "Total number of reachability probes",
		},
		[]string{"profile", "result"}, // "reachable" or "unreachable"
	)

	// VaultOperations counts credential encryption operations.
	VaultOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "launchpad",
			Name:      "vault_operations_total",
			Help:      "Total number of credential encrypt/decrypt operations",
		},
		[]string{"operation"}, // "encrypt" or "decrypt"
	)

	// HTTPRequestsTotal counts local API requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "launchpad",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestsInFlight tracks requests currently being served.
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "launchpad",
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	// HTTPRequestDuration tracks local API request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "launchpad",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// ItemsTotal tracks stored items by kind.
	ItemsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "launchpad",
			Name:      "items_total",
			Help:      "Number of stored items",
		},
		[]string{"kind"},
	)

	// GroupsTotal tracks the number of groups.
	GroupsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "launchpad",
			Name:      "groups_total",
			Help:      "Number of groups",
		},
	)

	// VaultUnlocked is 1 while the vault holds a session.
	VaultUnlocked = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "launchpad",
			Name:      "vault_unlocked",
			Help:      "Whether the credential vault is unlocked (1) or not (0)",
		},
	)
)
