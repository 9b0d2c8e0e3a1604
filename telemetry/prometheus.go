package telemetry

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	sdk "github.com/cad/ovpm/sdk/go"
)

// Metrics holds the SDK request collectors.
type Metrics struct {
	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
	Failures *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ovpm",
			Subsystem: "sdk",
			Name:      "requests_total",
			Help:      "API calls dispatched, by endpoint, method and HTTP status (0 when no response arrived).",
		}, []string{"endpoint", "method", "status"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ovpm",
			Subsystem: "sdk",
			Name:      "request_duration_seconds",
			Help:      "API call latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint", "method"}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ovpm",
			Subsystem: "sdk",
			Name:      "failures_total",
			Help:      "API calls that failed, by endpoint and HTTP status (0 for transport errors).",
		}, []string{"endpoint", "status"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.Requests, m.Latency, m.Failures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns SDK hooks that record every dispatched call.
func (m *Metrics) Hooks() sdk.TelemetryHooks {
	return sdk.TelemetryHooks{
		OnMetric: func(_ context.Context, metric sdk.Metric) {
			if metric.Name != sdk.MetricRequestLatency {
				return
			}
			endpoint := metric.Labels["endpoint"]
			method := metric.Labels["method"]
			status := metric.Labels["status"]
			m.Requests.WithLabelValues(endpoint, method, status).Inc()
			m.Latency.WithLabelValues(endpoint, method).Observe(metric.Value / 1000)
			if code, err := strconv.Atoi(status); err != nil || code < 200 || code >= 300 {
				m.Failures.WithLabelValues(endpoint, status).Inc()
			}
		},
	}
}
