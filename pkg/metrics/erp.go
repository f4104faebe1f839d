package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ErpMetrics records outbound Bling API call outcomes.
type ErpMetrics struct {
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
}

// NewErpMetrics registers the ERP call metrics on the provided registerer.
func NewErpMetrics(reg prometheus.Registerer) *ErpMetrics {
	if reg == nil {
		return &ErpMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "erp_request_duration_seconds",
		Help:    "Duration of Bling API requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "erp_requests_total",
		Help: "Bling API requests by operation and outcome.",
	}, []string{"operation", "outcome"})
	reg.MustRegister(duration, requests)
	return &ErpMetrics{
		duration: duration,
		requests: requests,
	}
}

// Observe records one completed Bling call.
func (e *ErpMetrics) Observe(operation string, duration time.Duration, err error) {
	if e == nil || e.duration == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	e.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
	e.requests.WithLabelValues(normalizeLabel(operation), outcome).Inc()
}
