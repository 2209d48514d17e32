package engine

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for pool builds.
type Metrics struct {
	ProbesTotal      *prometheus.CounterVec
	ProbeLatency     *prometheus.HistogramVec
	HealthyEndpoints *prometheus.GaugeVec
	QuirksDetected   *prometheus.CounterVec
	BuildDuration    prometheus.Histogram
}

var (
	metrics     *Metrics
	metricsOnce sync.Once
)

// GetMetrics returns the singleton Metrics instance
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = NewMetrics(prometheus.DefaultRegisterer)
	})
	return metrics
}

// NewMetrics registers a fresh metric set on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ProbesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rpcpool_probes_total",
			Help: "Total number of endpoint probes by transport and result",
		}, []string{"transport", "result"}),
		ProbeLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rpcpool_probe_duration_seconds",
			Help:    "Latest-block probe latency by transport",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"transport"}),
		HealthyEndpoints: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rpcpool_healthy_endpoints",
			Help: "Number of healthy endpoints after the last build",
		}, []string{"transport"}),
		QuirksDetected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rpcpool_quirks_detected_total",
			Help: "Protocol quirks detected while probing",
		}, []string{"quirk"}),
		BuildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "rpcpool_build_duration_seconds",
			Help:    "Wall time of a full pool build",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// RecordProbe accounts one probe outcome.
func (m *Metrics) RecordProbe(o ProbeOutcome) {
	if m == nil {
		return
	}
	transport := o.Endpoint.Transport.String()
	result := "healthy"
	if !o.Healthy {
		result = "excluded"
	}
	m.ProbesTotal.WithLabelValues(transport, result).Inc()
	if o.Measured {
		m.ProbeLatency.WithLabelValues(transport).Observe(o.Latency.Seconds())
	}
	for _, q := range o.Quirks {
		m.QuirksDetected.WithLabelValues(q.String()).Inc()
	}
}

// RecordBuild sets the healthy gauge and build duration.
func (m *Metrics) RecordBuild(transport string, report BuildReport) {
	if m == nil {
		return
	}
	m.HealthyEndpoints.WithLabelValues(transport).Set(float64(report.Healthy))
	m.BuildDuration.Observe(report.Elapsed.Seconds())
}
