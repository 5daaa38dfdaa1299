// Package metrics exposes the simulator's operational counters via
// github.com/prometheus/client_golang, served over stdlib net/http —
// matching the teacher's cmd/snmpsim-api/metrics.go package-level
// CounterVec/GaugeVec/HistogramVec registered against the default
// registry and exported through promhttp.Handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	DevicesSpawned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snmpsim_devices_spawned_total",
			Help: "Total devices lazily spawned by the pool",
		},
		[]string{"device_type"},
	)

	DevicesReaped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snmpsim_devices_reaped_total",
			Help: "Total devices evicted by the idle reaper",
		},
		[]string{"device_type"},
	)

	PoolSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "snmpsim_pool_size",
			Help: "Current number of live devices in the pool",
		},
	)

	PDURequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snmpsim_pdu_requests_total",
			Help: "Total PDU requests processed, by operation and result",
		},
		[]string{"operation", "result"},
	)

	BulkTruncations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snmpsim_bulk_truncations_total",
			Help: "Total GETBULK requests answered tooBig because the response exceeds the UDP size cap",
		},
		[]string{"device_type"},
	)

	ActiveErrorConditions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "snmpsim_active_error_conditions",
			Help: "Currently installed fault conditions, by kind",
		},
		[]string{"kind"},
	)

	RequestLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "snmpsim_request_latency_seconds",
			Help:    "PDU processing latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(
		DevicesSpawned,
		DevicesReaped,
		PoolSize,
		PDURequestsTotal,
		BulkTruncations,
		ActiveErrorConditions,
		RequestLatencySeconds,
	)
}

// Handler returns the stdlib http.Handler serving the default registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{})
}

// Serve starts a dedicated metrics server on addr, blocking until it
// exits (mirroring the teacher's separate metrics-port http.Server).
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
