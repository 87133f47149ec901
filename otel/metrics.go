// Package otel records bus and actor metrics through OpenTelemetry instruments.
package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	mmetrics "github.com/next-trace/scg-mics/metrics"
)

// BusMetrics implements metrics.BusMetrics on an OpenTelemetry meter.
type BusMetrics struct {
	eventsSent     metric.Int64Counter
	eventsResolved metric.Int64Counter
	fanout         metric.Int64Histogram
	mailboxDepth   metric.Int64Gauge
}

var _ mmetrics.BusMetrics = (*BusMetrics)(nil)

// NewBusMetrics creates the bus instruments on meter.
func NewBusMetrics(meter metric.Meter) (*BusMetrics, error) {
	sent, err := meter.Int64Counter("mics.bus.events.sent",
		metric.WithDescription("Number of events sent"),
	)
	if err != nil {
		return nil, err
	}

	resolved, err := meter.Int64Counter("mics.bus.events.resolved",
		metric.WithDescription("Number of pending events completed or failed"),
	)
	if err != nil {
		return nil, err
	}

	fanout, err := meter.Int64Histogram("mics.bus.broadcast.fanout",
		metric.WithDescription("Mailboxes reached per broadcast"),
	)
	if err != nil {
		return nil, err
	}

	depth, err := meter.Int64Gauge("mics.bus.mailbox.depth",
		metric.WithDescription("Mailbox depth after the last enqueue"),
	)
	if err != nil {
		return nil, err
	}

	return &BusMetrics{
		eventsSent:     sent,
		eventsResolved: resolved,
		fanout:         fanout,
		mailboxDepth:   depth,
	}, nil
}

func (m *BusMetrics) EventSent(msgType string, delivered bool) {
	m.eventsSent.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("message_type", msgType),
		attribute.Bool("delivered", delivered),
	))
}

func (m *BusMetrics) EventResolved(msgType string, success bool) {
	m.eventsResolved.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("message_type", msgType),
		attribute.Bool("success", success),
	))
}

func (m *BusMetrics) BroadcastSent(msgType string, fanout int) {
	m.fanout.Record(context.Background(), int64(fanout),
		metric.WithAttributes(attribute.String("message_type", msgType)))
}

func (m *BusMetrics) MailboxDepth(actor string, depth int) {
	m.mailboxDepth.Record(context.Background(), int64(depth),
		metric.WithAttributes(attribute.String("actor", actor)))
}

// ActorMetrics implements metrics.ActorMetrics on an OpenTelemetry meter.
type ActorMetrics struct {
	duration    metric.Float64Histogram
	processed   metric.Int64Counter
	panics      metric.Int64Counter
	transitions metric.Int64Counter
}

var _ mmetrics.ActorMetrics = (*ActorMetrics)(nil)

// NewActorMetrics creates the actor runtime instruments on meter.
func NewActorMetrics(meter metric.Meter) (*ActorMetrics, error) {
	dur, err := meter.Float64Histogram("mics.actor.message.duration",
		metric.WithDescription("Duration of message handling in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	processed, err := meter.Int64Counter("mics.actor.messages",
		metric.WithDescription("Number of messages handled"),
	)
	if err != nil {
		return nil, err
	}

	panics, err := meter.Int64Counter("mics.actor.panics",
		metric.WithDescription("Number of handler panics"),
	)
	if err != nil {
		return nil, err
	}

	transitions, err := meter.Int64Counter("mics.actor.transitions",
		metric.WithDescription("Lifecycle transitions by target state"),
	)
	if err != nil {
		return nil, err
	}

	return &ActorMetrics{
		duration:    dur,
		processed:   processed,
		panics:      panics,
		transitions: transitions,
	}, nil
}

type timer struct {
	h     metric.Float64Histogram
	attrs metric.MeasurementOption
	start time.Time
}

func (t *timer) ObserveDuration() {
	t.h.Record(context.Background(), time.Since(t.start).Seconds(), t.attrs)
}

func (m *ActorMetrics) MessageDuration(msgType string) mmetrics.Timer {
	return &timer{
		h:     m.duration,
		attrs: metric.WithAttributes(attribute.String("message_type", msgType)),
		start: time.Now(),
	}
}

func (m *ActorMetrics) MessageProcessed(msgType string, success bool) {
	m.processed.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("message_type", msgType),
		attribute.Bool("success", success),
	))
}

func (m *ActorMetrics) HandlerPanic(msgType string) {
	m.panics.Add(context.Background(), 1, metric.WithAttributes(attribute.String("message_type", msgType)))
}

func (m *ActorMetrics) ActorState(actor string, state string) {
	m.transitions.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("actor", actor),
		attribute.String("state", state),
	))
}
