package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/next-trace/scg-mics/metrics"
)

// busMetrics implements metrics.BusMetrics using Prometheus.
type busMetrics struct {
	eventsSent     *prometheus.CounterVec
	eventsResolved *prometheus.CounterVec
	broadcasts     *prometheus.CounterVec
	deliveries     *prometheus.CounterVec
	mailboxDepth   *prometheus.GaugeVec
}

// NewBusMetrics creates a new Prometheus implementation of BusMetrics.
func NewBusMetrics(reg prometheus.Registerer) metrics.BusMetrics {
	m := &busMetrics{
		eventsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mics_bus_events_sent_total",
			Help: "Events sent, by whether a subscriber took them",
		}, []string{"message_type", "delivered"}),

		eventsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mics_bus_events_resolved_total",
			Help: "Pending events completed or failed",
		}, []string{"message_type", "success"}),

		broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mics_bus_broadcasts_total",
			Help: "Broadcasts sent",
		}, []string{"message_type"}),

		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mics_bus_broadcast_deliveries_total",
			Help: "Mailboxes reached by broadcasts",
		}, []string{"message_type"}),

		mailboxDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mics_bus_mailbox_depth",
			Help: "Mailbox queue depth after the last enqueue",
		}, []string{"actor"}),
	}

	reg.MustRegister(
		m.eventsSent,
		m.eventsResolved,
		m.broadcasts,
		m.deliveries,
		m.mailboxDepth,
	)

	return m
}

func (m *busMetrics) EventSent(msgType string, delivered bool) {
	m.eventsSent.WithLabelValues(msgType, boolToStr(delivered)).Inc()
}

func (m *busMetrics) EventResolved(msgType string, success bool) {
	m.eventsResolved.WithLabelValues(msgType, boolToStr(success)).Inc()
}

func (m *busMetrics) BroadcastSent(msgType string, fanout int) {
	m.broadcasts.WithLabelValues(msgType).Inc()
	m.deliveries.WithLabelValues(msgType).Add(float64(fanout))
}

func (m *busMetrics) MailboxDepth(actor string, depth int) {
	m.mailboxDepth.WithLabelValues(actor).Set(float64(depth))
}

var _ metrics.BusMetrics = (*busMetrics)(nil)
