package inmemory

import (
	"context"
	"sync"

	cbus "github.com/next-trace/scg-mics/contract/bus"
)

// Recorder is a thread-safe in-memory implementation of cbus.TrafficPublisher.
// It keeps every published record for tests and examples.
type Recorder struct {
	mu      sync.Mutex
	records []cbus.Traffic
	topics  []string
}

func (r *Recorder) PublishTraffic(
	ctx context.Context,
	rec cbus.Traffic,
	opts cbus.PublishOptions,
) error {
	topic := rec.Topic()
	if opts.TopicOverride != "" {
		topic = opts.TopicOverride
	}

	r.mu.Lock()
	r.records = append(r.records, rec)
	r.topics = append(r.topics, topic)
	r.mu.Unlock()

	return nil
}

// Records returns a copy of the published records in publish order.
func (r *Recorder) Records() []cbus.Traffic {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]cbus.Traffic, len(r.records))
	copy(out, r.records)

	return out
}

// Topics returns the resolved subject of each record, aligned with Records.
func (r *Recorder) Topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.topics))
	copy(out, r.topics)

	return out
}

// Count returns the number of records of kind k.
func (r *Recorder) Count(k cbus.TrafficKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0

	for _, rec := range r.records {
		if rec.Kind == k {
			n++
		}
	}

	return n
}

// Ensure Recorder implements the adapter contract.
var _ cbus.Adapter = (*Recorder)(nil)

// New creates a new in-memory recorder.
// Use with messagebus.WithTap(inmemory.New(), cbus.PublishOptions{}).
func New() *Recorder { return &Recorder{} }
