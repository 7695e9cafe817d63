// Package metrics exposes Prometheus metrics for the bridge: device call
// counts by operation and outcome, simulator request counts by endpoint, and
// device call latencies.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// DeviceCalls counts device API calls by operation and outcome
	// (success, remote-error, or the transport error kind).
	DeviceCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "etims_device_calls_total",
		Help: "Device API calls by operation and outcome.",
	}, []string{"operation", "outcome"})

	// DeviceCallDuration tracks device call latency by operation.
	DeviceCallDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "etims_device_call_duration_seconds",
		Help:    "Device API call duration by operation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// SimulatorRequests counts requests handled by the demo responder.
	SimulatorRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "etims_simulator_requests_total",
		Help: "Demo responder requests by endpoint.",
	}, []string{"endpoint"})
)

// MetricsServer serves the Prometheus registry over HTTP.
type MetricsServer struct {
	srv      *http.Server
	registry *prometheus.Registry
}

// New creates a metrics server for the given service name listening on addr.
func New(name, addr string) (*MetricsServer, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(DeviceCalls, DeviceCallDuration, SimulatorRequests)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &MetricsServer{
		srv: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		registry: registry,
	}, nil
}

// ListenAndServe blocks serving the metrics endpoint.
func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

// Shutdown gracefully stops the metrics server.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
