package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/spektr-org/agrolens/engine"
)

// Metrics provides observability for the HTTP surface.
type Metrics struct {
	// Requests by route pattern and status code
	Requests *prometheus.CounterVec

	// Request latency by route pattern
	RequestLatency *prometheus.HistogramVec

	// Summaries produced by trend label
	Trends *prometheus.CounterVec

	// Bundle cache lookups by result (hit, miss)
	CacheLookups *prometheus.CounterVec
}

// NewMetrics registers the server metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agrolens_http_requests_total",
			Help: "Total HTTP requests by route and status code",
		}, []string{"route", "status"}),

		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agrolens_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"route"}),

		Trends: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agrolens_summaries_total",
			Help: "Summaries produced by trend label",
		}, []string{"trend"}),

		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agrolens_cache_lookups_total",
			Help: "Bundle cache lookups by result",
		}, []string{"result"}),
	}
}

// ObserveRequest records one finished request.
func (m *Metrics) ObserveRequest(route, status string, d time.Duration) {
	if m != nil {
		m.Requests.WithLabelValues(route, status).Inc()
		m.RequestLatency.WithLabelValues(route).Observe(d.Seconds())
	}
}

// IncrementTrend records a produced summary.
func (m *Metrics) IncrementTrend(label engine.TrendLabel) {
	if m != nil {
		m.Trends.WithLabelValues(string(label)).Inc()
	}
}

// IncrementCache records a cache lookup.
func (m *Metrics) IncrementCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
	} else {
		m.CacheLookups.WithLabelValues("miss").Inc()
	}
}
