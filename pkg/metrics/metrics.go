package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Controller transport metrics
	RemoteRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "craftybroker_remote_requests_total",
			Help: "Total number of controller API requests by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	// Lifecycle metrics
	LifecycleOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "craftybroker_lifecycle_operations_total",
			Help: "Total number of lifecycle operations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	ConvergenceDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "craftybroker_convergence_duration_seconds",
			Help:    "Time between a lifecycle command and the server reaching the target state",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	// Registry metrics
	ManagedServers = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "craftybroker_managed_servers",
			Help: "Number of managed servers by last observed status",
		},
		[]string{"status"},
	)

	ConfigChangesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "craftybroker_config_changes_total",
			Help: "Total number of deferred configuration cutovers applied",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(RemoteRequestsTotal)
	prometheus.MustRegister(LifecycleOperationsTotal)
	prometheus.MustRegister(ConvergenceDuration)
	prometheus.MustRegister(ManagedServers)
	prometheus.MustRegister(ConfigChangesTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
