// Package metrics exposes Prometheus instruments for authentication
// outcomes, gate decisions and HTTP latency. A nil *Metrics is valid and
// records nothing, so components can be built without instrumentation.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gatehouse"

// Metrics holds the collectors registered on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	authAttempts  *prometheus.CounterVec
	registrations *prometheus.CounterVec
	renewals      *prometheus.CounterVec
	gateDecisions *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// New registers all collectors plus the Go and process collectors on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		authAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Authentication attempts by method and outcome",
		}, []string{"method", "outcome"}),

		registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Registration attempts by outcome",
		}, []string{"outcome"}),

		renewals: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_renewals_total",
			Help:      "Access token renewals by outcome",
		}, []string{"outcome"}),

		gateDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_decisions_total",
			Help:      "Authorization gate decisions by required role and result",
		}, []string{"role", "result"}),

		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by route and status code",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "code"}),
	}
}

// Registry returns the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// AuthAttempt records a login by method ("password", "federated:google")
// with outcome "success" or a failure code.
func (m *Metrics) AuthAttempt(method, outcome string) {
	if m == nil {
		return
	}
	m.authAttempts.WithLabelValues(method, outcome).Inc()
}

func (m *Metrics) Registration(outcome string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Renewal(outcome string) {
	if m == nil {
		return
	}
	m.renewals.WithLabelValues(outcome).Inc()
}

// GateDecision records an allow or a deny reason for a required role.
func (m *Metrics) GateDecision(role, result string) {
	if m == nil {
		return
	}
	m.gateDecisions.WithLabelValues(role, result).Inc()
}

// ObserveHTTP records the duration of one request.
func (m *Metrics) ObserveHTTP(route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(route, strconv.Itoa(code)).Observe(d.Seconds())
}

// Middleware times every request. route maps a request to a bounded label
// such as its mux pattern; an empty label is recorded as "unmatched".
func (m *Metrics) Middleware(route func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			label := route(r)
			if label == "" {
				label = "unmatched"
			}
			m.ObserveHTTP(label, sw.status, time.Since(start))
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
