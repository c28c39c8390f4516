package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of the service.
type Metrics struct {
	requests         *prometheus.CounterVec
	requestLatency   *prometheus.HistogramVec
	errors           *prometheus.CounterVec
	ticketsCreated   prometheus.Counter
	assignments      *prometheus.CounterVec
	transitions      *prometheus.CounterVec
	deliveries       *prometheus.CounterVec
	deliveryFailures *prometheus.CounterVec
}

// NewMetrics builds the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"route", "method", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "HTTP requests answered with an error envelope, by code.",
		}, []string{"route", "method", "code"}),
		ticketsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tickets_created_total",
			Help: "Tickets persisted.",
		}),
		assignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ticket_assignments_total",
			Help: "Assignment outcomes by source (auto, manual) and result.",
		}, []string{"source", "result"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ticket_status_transitions_total",
			Help: "Status updates by target status.",
		}, []string{"to"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_deliveries_total",
			Help: "Notification delivery attempts by channel.",
		}, []string{"channel"}),
		deliveryFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_delivery_failures_total",
			Help: "Failed notification deliveries by channel.",
		}, []string{"channel"}),
	}

	reg.MustRegister(
		m.requests,
		m.requestLatency,
		m.errors,
		m.ticketsCreated,
		m.assignments,
		m.transitions,
		m.deliveries,
		m.deliveryFailures,
	)
	return m
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// TicketCreated counts a persisted ticket.
func (m *Metrics) TicketCreated() {
	if m == nil {
		return
	}
	m.ticketsCreated.Inc()
}

// AssignmentRecorded counts an assignment attempt. result is "assigned",
// "no_agent" or "failed".
func (m *Metrics) AssignmentRecorded(source, result string) {
	if m == nil {
		return
	}
	m.assignments.WithLabelValues(source, result).Inc()
}

// StatusChanged counts a status update.
func (m *Metrics) StatusChanged(to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(to).Inc()
}

// NotificationDelivered counts a channel attempt and, when err is set, its failure.
func (m *Metrics) NotificationDelivered(channel string, err error) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(channel).Inc()
	if err != nil {
		m.deliveryFailures.WithLabelValues(channel).Inc()
	}
}
