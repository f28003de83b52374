// Package metrics exposes Prometheus metrics for the compression
// pipeline and the routing engine.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds the Prometheus instruments for the service.
type Metrics struct {
	// Compression pipeline
	CompressionsTotal prometheus.Counter
	CompressionRatio  prometheus.Histogram

	// Routing engine
	RoutingDecisionsTotal *prometheus.CounterVec
	FallbacksTotal        prometheus.Counter
	RouteDuration         *prometheus.HistogramVec
}

// New creates and registers the service metrics on the default
// registerer. sync.Once guards against duplicate registration panics
// when multiple components request the instruments.
//
// All metrics are prefixed with "globalmcp_".
func New() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			CompressionsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "globalmcp_compressions_total",
					Help: "Total number of KV cache compression runs",
				},
			),

			CompressionRatio: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "globalmcp_compression_ratio",
					Help:    "Achieved compression ratio (compressed/original tokens)",
					Buckets: prometheus.LinearBuckets(0.05, 0.05, 20),
				},
			),

			RoutingDecisionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "globalmcp_routing_decisions_total",
					Help: "Total number of routing decisions by tier",
				},
				[]string{"tier"},
			),

			FallbacksTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "globalmcp_fallbacks_total",
					Help: "Total number of routed prompts answered by the fallback payload",
				},
			),

			RouteDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "globalmcp_route_duration_seconds",
					Help:    "End-to-end routing latency in seconds",
					Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
				},
				[]string{"tier"},
			),
		}
	})
	return globalMetrics
}
