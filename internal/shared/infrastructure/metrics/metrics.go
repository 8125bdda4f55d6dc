package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Relay holds the delivery and registry counters exported on /metrics.
// A nil *Relay is valid and records nothing.
type Relay struct {
	deliveries       *prometheus.CounterVec
	connections      *prometheus.CounterVec
	persistFailures  prometheus.Counter
	dispatchDuration *prometheus.HistogramVec
}

func NewRelay(reg prometheus.Registerer) *Relay {
	m := &Relay{
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_push_deliveries_total",
			Help: "Push attempts by outcome (delivered, stale, transient_error).",
		}, []string{"outcome"}),
		connections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_connection_events_total",
			Help: "Connection registry mutations by event (connect, disconnect, stale_reap).",
		}, []string{"event"}),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_notification_persist_failures_total",
			Help: "Notification records that could not be written.",
		}),
		dispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "relay_dispatch_duration_seconds",
			Help:    "Duration of a whole notification dispatch.",
			Buckets: prometheus.DefBuckets,
		}, []string{"recipient"}),
	}
	if reg != nil {
		reg.MustRegister(m.deliveries, m.connections, m.persistFailures, m.dispatchDuration)
	}
	return m
}

func (m *Relay) ObserveDelivery(outcome string) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(outcome).Inc()
}

func (m *Relay) ObserveConnectionEvent(event string) {
	if m == nil {
		return
	}
	m.connections.WithLabelValues(event).Inc()
}

func (m *Relay) ObservePersistFailure() {
	if m == nil {
		return
	}
	m.persistFailures.Inc()
}

func (m *Relay) ObserveDispatch(recipient string, d time.Duration) {
	if m == nil {
		return
	}
	m.dispatchDuration.WithLabelValues(recipient).Observe(d.Seconds())
}
