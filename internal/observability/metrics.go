package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the prometheus collectors exported by the service.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	TicketOperations    *prometheus.CounterVec
	AuditEventsTotal    *prometheus.CounterVec
	PresignedURLsTotal  *prometheus.CounterVec
}

// NewMetrics builds collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tickets_http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"route", "method", "code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tickets_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		TicketOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tickets_operations_total",
			Help: "Ticket operations by outcome",
		}, []string{"op", "outcome"}),
		AuditEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tickets_audit_events_total",
			Help: "Committed audit events by action",
		}, []string{"action"}),
		PresignedURLsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tickets_presigned_urls_total",
			Help: "Presigned attachment URLs handed out",
		}, []string{"kind", "cache"}),
	}
	if reg != nil {
		reg.MustRegister(m.HTTPRequestsTotal, m.HTTPRequestDuration, m.TicketOperations, m.AuditEventsTotal, m.PresignedURLsTotal)
	}
	return m
}

// RecordRequest observes one HTTP request.
func (m *Metrics) RecordRequest(route, method, code string, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, method, code).Inc()
	m.HTTPRequestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordOperation counts a ticket operation outcome (ok or the error code).
func (m *Metrics) RecordOperation(op, outcome string) {
	if m == nil {
		return
	}
	m.TicketOperations.WithLabelValues(op, outcome).Inc()
}

// RecordAudit counts a committed audit event.
func (m *Metrics) RecordAudit(action string) {
	if m == nil {
		return
	}
	m.AuditEventsTotal.WithLabelValues(action).Inc()
}

// RecordPresign counts a presigned URL; cache is hit, miss or off.
func (m *Metrics) RecordPresign(kind, cache string) {
	if m == nil {
		return
	}
	m.PresignedURLsTotal.WithLabelValues(kind, cache).Inc()
}
