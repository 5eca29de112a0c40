package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels
const (
	OutcomeCreated     = "created"
	OutcomeInvalidURL  = "invalid_url"
	OutcomeInvalidCode = "invalid_code"
	OutcomeConflict    = "conflict"
	OutcomeExhausted   = "exhausted"
	OutcomeError       = "error"

	OutcomeHit  = "hit"
	OutcomeMiss = "miss"
)

// Metrics groups the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	allocations     *prometheus.CounterVec
	allocationTries prometheus.Histogram
	resolutions     *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		allocations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "links_allocations_total",
			Help: "Link allocations by outcome.",
		}, []string{"outcome"}),
		allocationTries: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "links_allocation_attempts",
			Help:    "Generated candidates tried per successful allocation.",
			Buckets: []float64{1, 2, 3, 5, 10, 20},
		}),
		resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "links_resolutions_total",
			Help: "Code resolutions by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) ObserveAllocation(outcome string, attempts int) {
	if m == nil {
		return
	}
	m.allocations.WithLabelValues(outcome).Inc()
	if outcome == OutcomeCreated && attempts > 0 {
		m.allocationTries.Observe(float64(attempts))
	}
}

func (m *Metrics) ObserveResolution(outcome string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
