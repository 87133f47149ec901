package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/next-trace/scg-mics/metrics"
)

// actorMetrics implements metrics.ActorMetrics using Prometheus.
type actorMetrics struct {
	messageDuration *prometheus.HistogramVec
	messagesTotal   *prometheus.CounterVec
	panicTotal      *prometheus.CounterVec
	transitions     *prometheus.CounterVec
}

// NewActorMetrics creates a new Prometheus implementation of ActorMetrics.
func NewActorMetrics(reg prometheus.Registerer) metrics.ActorMetrics {
	m := &actorMetrics{
		messageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mics_actor_message_duration_seconds",
			Help:    "Message handling time in seconds",
			Buckets: defaultBuckets,
		}, []string{"message_type"}),

		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mics_actor_messages_total",
			Help: "Total number of messages processed",
		}, []string{"message_type", "success"}),

		panicTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mics_actor_panics_total",
			Help: "Total number of handler panics",
		}, []string{"message_type"}),

		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mics_actor_state_transitions_total",
			Help: "Lifecycle transitions by target state",
		}, []string{"state"}),
	}

	reg.MustRegister(
		m.messageDuration,
		m.messagesTotal,
		m.panicTotal,
		m.transitions,
	)

	return m
}

func (m *actorMetrics) MessageDuration(msgType string) metrics.Timer {
	return newTimer(m.messageDuration.WithLabelValues(msgType))
}

func (m *actorMetrics) MessageProcessed(msgType string, success bool) {
	m.messagesTotal.WithLabelValues(msgType, boolToStr(success)).Inc()
}

func (m *actorMetrics) HandlerPanic(msgType string) {
	m.panicTotal.WithLabelValues(msgType).Inc()
}

// ActorState counts transitions only; actor names are unbounded and stay out of the labels.
func (m *actorMetrics) ActorState(_ string, state string) {
	m.transitions.WithLabelValues(state).Inc()
}

var _ metrics.ActorMetrics = (*actorMetrics)(nil)
