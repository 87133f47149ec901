// Package prometheus provides Prometheus implementations of the metrics
// interfaces for the bus and the actor runtime.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/next-trace/scg-mics/metrics"
)

// timer wraps a Prometheus histogram to implement the Timer interface.
type timer struct {
	h     prometheus.Observer
	start time.Time
}

func newTimer(h prometheus.Observer) metrics.Timer {
	return &timer{h: h, start: time.Now()}
}

func (t *timer) ObserveDuration() {
	t.h.Observe(time.Since(t.start).Seconds())
}

// Default histogram buckets for handler latency (in seconds).
var defaultBuckets = []float64{
	.0001, .0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1,
}

// Metrics holds both backends registered on one registry.
type Metrics struct {
	Bus   metrics.BusMetrics
	Actor metrics.ActorMetrics
}

// NewMetrics registers bus and actor metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Bus:   NewBusMetrics(reg),
		Actor: NewActorMetrics(reg),
	}
}

func boolToStr(b bool) string {
	if b {
		return "true"
	}

	return "false"
}
