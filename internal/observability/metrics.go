package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the prometheus collectors exported by the service. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	errors        *prometheus.CounterVec
	mutations     *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	identityCache *prometheus.CounterVec
}

// NewMetrics registers collectors on a dedicated registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_request_errors_total",
			Help: "HTTP error responses by route, method and error code.",
		}, []string{"route", "method", "code"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "service_request_mutations_total",
			Help: "Committed service request mutations by audit action.",
		}, []string{"action"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "service_request_transitions_total",
			Help: "Committed status transitions.",
		}, []string{"from", "to"}),
		identityCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "identity_cache_lookups_total",
			Help: "API key identity cache lookups by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.duration, m.errors, m.mutations, m.transitions, m.identityCache,
	)
	return m
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRequest counts a completed HTTP request.
func (m *Metrics) RecordRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// RecordError counts an error response.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// RecordMutation counts a committed audit action.
func (m *Metrics) RecordMutation(action string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(action).Inc()
}

// RecordTransition counts a committed status change.
func (m *Metrics) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

// RecordIdentityCache counts a cache lookup; result is hit, miss or error.
func (m *Metrics) RecordIdentityCache(result string) {
	if m == nil {
		return
	}
	m.identityCache.WithLabelValues(result).Inc()
}
