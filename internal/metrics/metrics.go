package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the service's Prometheus collectors
type Metrics struct {
	registry *prometheus.Registry

	RemindersFired    prometheus.Counter
	RemindersTaken    prometheus.Counter
	RemindersSnoozed  prometheus.Counter
	RemindersMissed   prometheus.Counter
	ActiveReminders   prometheus.Gauge
	AppointmentAlerts *prometheus.CounterVec

	NotificationsSent     *prometheus.CounterVec
	NotificationErrors    *prometheus.CounterVec
	PlacesRequests        *prometheus.CounterVec
	PlacesLatencySecs     prometheus.Histogram
	PlacesCacheHits       prometheus.Counter
	ReconciledOccurrences prometheus.Counter
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Default returns the process-wide metrics instance
func Default() *Metrics {
	once.Do(func() {
		defaultMetrics = New()
	})
	return defaultMetrics
}

// New creates a new metrics set with its own registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		RemindersFired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "healthtrack_reminders_fired_total",
			Help: "Medication reminder occurrences fired",
		}),
		RemindersTaken: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "healthtrack_reminders_taken_total",
			Help: "Reminders resolved as taken",
		}),
		RemindersSnoozed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "healthtrack_reminders_snoozed_total",
			Help: "Reminders snoozed",
		}),
		RemindersMissed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "healthtrack_reminders_missed_total",
			Help: "Occurrences that ended as missed",
		}),
		ActiveReminders: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "healthtrack_active_reminders",
			Help: "Reminders currently awaiting a response",
		}),
		AppointmentAlerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "healthtrack_appointment_alerts_total",
			Help: "Staged appointment alerts fired",
		}, []string{"threshold"}),
		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "healthtrack_notifications_sent_total",
			Help: "Notifications delivered per sink",
		}, []string{"sink"}),
		NotificationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "healthtrack_notification_errors_total",
			Help: "Notification delivery failures per sink",
		}, []string{"sink"}),
		PlacesRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "healthtrack_places_requests_total",
			Help: "Upstream places API requests by outcome",
		}, []string{"outcome"}),
		PlacesLatencySecs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "healthtrack_places_latency_seconds",
			Help:    "Upstream places API latency",
			Buckets: prometheus.DefBuckets,
		}),
		PlacesCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "healthtrack_places_cache_hits_total",
			Help: "Hospital searches served from cache",
		}),
		ReconciledOccurrences: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "healthtrack_reconciled_occurrences_total",
			Help: "Occurrences back-filled as missed on reconcile",
		}),
	}

	reg.MustRegister(
		m.RemindersFired,
		m.RemindersTaken,
		m.RemindersSnoozed,
		m.RemindersMissed,
		m.ActiveReminders,
		m.AppointmentAlerts,
		m.NotificationsSent,
		m.NotificationErrors,
		m.PlacesRequests,
		m.PlacesLatencySecs,
		m.PlacesCacheHits,
		m.ReconciledOccurrences,
	)

	return m
}

// Handler returns the Prometheus scrape handler for this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
