// AngelaMos | 2026
// metrics.go

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

const namespace = "meetstack"

// Metrics holds every collector the service exports. A nil *Metrics is
// valid and records nothing, which keeps tests free of registry setup.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	registrations   *prometheus.CounterVec
	quotaRejections prometheus.Counter
	compensations   *prometheus.CounterVec
	eventsCreated   prometheus.Counter
	limitRejections prometheus.Counter
	memberships     *prometheus.CounterVec
	publishFailures *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		registrations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Registration attempts by outcome.",
		}, []string{"outcome"}),
		quotaRejections: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_rejections_total",
			Help:      "Registrations refused by the daily quota.",
		}),
		compensations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "identity_compensations_total",
			Help:      "Provider accounts deleted after a failed local commit.",
		}, []string{"outcome"}),
		eventsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_created_total",
			Help:      "Events created.",
		}),
		limitRejections: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "owner_limit_rejections_total",
			Help:      "Event creations refused by the owner limit.",
		}),
		memberships: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memberships_created_total",
			Help:      "Memberships granted by role.",
		}, []string{"role"}),
		publishFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broker_publish_failures_total",
			Help:      "Domain events that could not be published.",
		}, []string{"type"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) Registration(outcome string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) QuotaRejected() {
	if m == nil {
		return
	}
	m.quotaRejections.Inc()
}

func (m *Metrics) Compensation(outcome string) {
	if m == nil {
		return
	}
	m.compensations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) EventCreated() {
	if m == nil {
		return
	}
	m.eventsCreated.Inc()
}

func (m *Metrics) OwnerLimitRejected() {
	if m == nil {
		return
	}
	m.limitRejections.Inc()
}

func (m *Metrics) MembershipCreated(role string) {
	if m == nil {
		return
	}
	m.memberships.WithLabelValues(role).Inc()
}

func (m *Metrics) PublishFailed(eventType string) {
	if m == nil {
		return
	}
	m.publishFailures.WithLabelValues(eventType).Inc()
}
