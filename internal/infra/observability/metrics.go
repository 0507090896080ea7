package observability

import (
	"time"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the portal BFA.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	backendErrors   *prometheus.CounterVec
	sessionLookups  *prometheus.CounterVec
	domainEvents    *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portal_operation_duration_seconds",
				Help:    "Duration of service operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		backendErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_backend_errors_total",
				Help: "Total errors returned by the backend.",
			},
			[]string{"service"},
		),
		sessionLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_session_lookups_total",
				Help: "Session cache lookups by result.",
			},
			[]string{"result"},
		),
		domainEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_events_total",
				Help: "Domain events (sign-ups, reservations, orders, uploads).",
			},
			[]string{"event"},
		),
	}
}

// Domain event labels.
const (
	EventSignUp      = "signup"
	EventReservation = "reservation_created"
	EventOrder       = "order_created"
	EventUpload      = "upload"
)

// RecordDuration records the duration of an operation.
func (m *Metrics) RecordDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrBackendError increments the backend error counter.
func (m *Metrics) IncrBackendError(service string) {
	m.backendErrors.WithLabelValues(service).Inc()
}

// IncrSessionHit counts a live session found in the cache.
func (m *Metrics) IncrSessionHit() {
	m.sessionLookups.WithLabelValues("hit").Inc()
}

// IncrSessionMiss counts a token whose session expired or was signed out.
func (m *Metrics) IncrSessionMiss() {
	m.sessionLookups.WithLabelValues("miss").Inc()
}

// IncrEvent increments a domain event counter.
func (m *Metrics) IncrEvent(event string) {
	m.domainEvents.WithLabelValues(event).Inc()
}

// Snapshot returns the cumulative counters for GET /v1/admin/stats.
func (m *Metrics) Snapshot(activeSessions int) *domain.PortalStats {
	hits := getCounterValue(m.sessionLookups, "hit")
	misses := getCounterValue(m.sessionLookups, "miss")
	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	return &domain.PortalStats{
		SignUps:             int64(getCounterValue(m.domainEvents, EventSignUp)),
		ReservationsCreated: int64(getCounterValue(m.domainEvents, EventReservation)),
		OrdersCreated:       int64(getCounterValue(m.domainEvents, EventOrder)),
		Uploads:             int64(getCounterValue(m.domainEvents, EventUpload)),
		BackendErrors:       int64(sumCounterVec(m.backendErrors)),
		SessionHitRate:      hitRate,
		ActiveSessions:      activeSessions,
		Period:              "since_start",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

// sumCounterVec adds up every label combination of a CounterVec.
func sumCounterVec(cv *prometheus.CounterVec) float64 {
	ch := make(chan prometheus.Metric, 16)
	go func() {
		cv.Collect(ch)
		close(ch)
	}()

	total := 0.0
	for metric := range ch {
		m := &dto.Metric{}
		if err := metric.Write(m); err != nil {
			continue
		}
		if m.Counter != nil && m.Counter.Value != nil {
			total += *m.Counter.Value
		}
	}
	return total
}
