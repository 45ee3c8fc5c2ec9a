// Package metrics owns the Prometheus collectors exposed on /metrics.
// Every recording method is safe on a nil *Metrics so services can run
// without instrumentation in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/aussiebroadwan/agileboard/pkg/httpx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "agileboard"

type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	invitations  *prometheus.CounterVec
	mailSent     *prometheus.CounterVec
	housekeeping prometheus.Counter
}

// New builds a private registry with the process and Go runtime
// collectors plus the board collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		invitations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invitations_total",
			Help:      "Invitation lifecycle transitions by outcome.",
		}, []string{"outcome"}),
		mailSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invitation_emails_total",
			Help:      "Invitation emails by delivery result.",
		}, []string{"result"}),
		housekeeping: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "housekeeping_deleted_rows_total",
			Help:      "Rows removed by the housekeeping worker.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.invitations,
		m.mailSent,
		m.housekeeping,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// InvitationOutcome counts one lifecycle transition, e.g. "invitation_sent"
// or "accepted".
func (m *Metrics) InvitationOutcome(outcome string) {
	if m == nil {
		return
	}
	m.invitations.WithLabelValues(outcome).Inc()
}

// InvitationEmail counts a delivery attempt.
func (m *Metrics) InvitationEmail(ok bool) {
	if m == nil {
		return
	}
	result := "sent"
	if !ok {
		result = "failed"
	}
	m.mailSent.WithLabelValues(result).Inc()
}

// HousekeepingDeleted adds n removed rows.
func (m *Metrics) HousekeepingDeleted(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.housekeeping.Add(float64(n))
}

// Middleware records request count and latency labelled by the ServeMux
// pattern. It must wrap the mux directly: the mux writes Request.Pattern
// onto the request it is handed.
func (m *Metrics) Middleware() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			m.httpRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }
