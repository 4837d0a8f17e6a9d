// Package metrics exposes Prometheus collectors for the server: session
// lifecycle outcomes and HTTP request latencies.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "taskkeeper"

// Metrics owns a private registry so tests and multiple app instances never
// collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	logins        *prometheus.CounterVec
	refreshes     *prometheus.CounterVec
	logouts       prometheus.Counter
	reuses        prometheus.Counter
	reuseRevoked  prometheus.Counter
	httpDurations *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_attempts_total",
			Help:      "Refresh token exchanges by outcome.",
		}, []string{"outcome"}),
		logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logouts_total",
			Help:      "Completed logout requests.",
		}),
		reuses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_token_reuse_total",
			Help:      "Presentations of consumed, revoked or expired refresh tokens.",
		}),
		reuseRevoked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_tokens_revoked_on_reuse_total",
			Help:      "Refresh tokens revoked in response to reuse.",
		}),
		httpDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latencies by route, method and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "code"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.logins, m.refreshes, m.logouts, m.reuses, m.reuseRevoked, m.httpDurations,
	)
	return m
}

func (m *Metrics) LoginAttempt(outcome string) {
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RefreshAttempt(outcome string) {
	m.refreshes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) LogoutCompleted() {
	m.logouts.Inc()
}

func (m *Metrics) ReuseDetected(revoked int) {
	m.reuses.Inc()
	m.reuseRevoked.Add(float64(revoked))
}

// ObserveHTTP records one served request. route is the route template, not
// the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(route, method string, code int, d time.Duration) {
	m.httpDurations.WithLabelValues(route, method, strconv.Itoa(code)).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
