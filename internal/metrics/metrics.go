// Package metrics exposes Prometheus instrumentation for instance
// operations and port forwarding.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pojde"

// Metrics holds the collectors registered for one process.
type Metrics struct {
	registry *prometheus.Registry

	lifecycleTotal    *prometheus.CounterVec
	lifecycleDuration *prometheus.HistogramVec
	instances         *prometheus.GaugeVec
	tunnelConns       *prometheus.CounterVec
	tunnelActive      *prometheus.GaugeVec
	tunnelBytes       *prometheus.CounterVec
	streamChunks      *prometheus.CounterVec
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		lifecycleTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lifecycle_operations_total",
			Help:      "Lifecycle requests per instance by operation and outcome.",
		}, []string{"op", "outcome"}),
		lifecycleDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lifecycle_operation_duration_seconds",
			Help:      "Duration of lifecycle requests per instance.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"op"}),
		instances: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "instances",
			Help:      "Instances by status as of the last listing.",
		}, []string{"status"}),
		tunnelConns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tunnel_connections_total",
			Help:      "Forwarded connections by direction and result.",
		}, []string{"direction", "result"}),
		tunnelActive: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tunnel_active_connections",
			Help:      "Forwarded connections currently open.",
		}, []string{"direction"}),
		tunnelBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tunnel_bytes_total",
			Help:      "Bytes spliced through forwarded connections.",
		}, []string{"direction"}),
		streamChunks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_chunks_total",
			Help:      "Relayed log and shell chunks by stream.",
		}, []string{"stream"}),
	}
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveLifecycle records one per-instance lifecycle request.
func (m *Metrics) ObserveLifecycle(op, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.lifecycleTotal.WithLabelValues(op, outcome).Inc()
	m.lifecycleDuration.WithLabelValues(op).Observe(d.Seconds())
}

// SetInstances replaces the per-status instance gauge.
func (m *Metrics) SetInstances(byStatus map[string]int) {
	if m == nil {
		return
	}
	m.instances.Reset()
	for status, n := range byStatus {
		m.instances.WithLabelValues(status).Set(float64(n))
	}
}

// TunnelOpened records an accepted forwarded connection.
func (m *Metrics) TunnelOpened(direction string) {
	if m == nil {
		return
	}
	m.tunnelConns.WithLabelValues(direction, "accepted").Inc()
	m.tunnelActive.WithLabelValues(direction).Inc()
}

// TunnelClosed records the end of a forwarded connection.
func (m *Metrics) TunnelClosed(direction string, bytes int64, failed bool) {
	if m == nil {
		return
	}
	m.tunnelActive.WithLabelValues(direction).Dec()
	m.tunnelBytes.WithLabelValues(direction).Add(float64(bytes))
	if failed {
		m.tunnelConns.WithLabelValues(direction, "failed").Inc()
	}
}

// ObserveChunk counts one relayed stream chunk.
func (m *Metrics) ObserveChunk(stream string) {
	if m == nil {
		return
	}
	m.streamChunks.WithLabelValues(stream).Inc()
}
