package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OutboxMetrics records publish outcomes for the outbox drain loop.
type OutboxMetrics struct {
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewOutboxMetrics registers the outbox metrics on the provided registerer.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_published",
		Help: "Outbox events successfully delivered to a sink.",
	}, []string{"sink", "event_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_failed",
		Help: "Outbox delivery attempts that returned an error.",
	}, []string{"sink", "event_type"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outbox_publish_duration_seconds",
		Help:    "Duration of individual outbox deliveries in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"sink"})
	reg.MustRegister(published, failed, duration)
	return &OutboxMetrics{
		published: published,
		failed:    failed,
		duration:  duration,
	}
}

// IncPublished increments the delivered counter for the sink and event type.
func (o *OutboxMetrics) IncPublished(sink, eventType string) {
	if o == nil || o.published == nil {
		return
	}
	o.published.WithLabelValues(normalizeLabel(sink), normalizeLabel(eventType)).Inc()
}

// IncFailed increments the failure counter for the sink and event type.
func (o *OutboxMetrics) IncFailed(sink, eventType string) {
	if o == nil || o.failed == nil {
		return
	}
	o.failed.WithLabelValues(normalizeLabel(sink), normalizeLabel(eventType)).Inc()
}

// ObservePublish records how long a single delivery took.
func (o *OutboxMetrics) ObservePublish(sink string, duration time.Duration) {
	if o == nil || o.duration == nil {
		return
	}
	o.duration.WithLabelValues(normalizeLabel(sink)).Observe(duration.Seconds())
}
