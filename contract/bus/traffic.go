package bus

import "time"

// TrafficKind classifies an audit record emitted by the bus.
type TrafficKind string

const (
	TrafficEventSent      TrafficKind = "event.sent"
	TrafficEventCompleted TrafficKind = "event.completed"
	TrafficEventFailed    TrafficKind = "event.failed"
	TrafficBroadcastSent  TrafficKind = "broadcast.sent"
)

// Traffic is a metadata-only record of one dispatch decision.
// Message payloads are never included.
type Traffic struct {
	Seq     uint64      `json:"seq"`
	Kind    TrafficKind `json:"kind"`
	Type    string      `json:"type"`
	Targets []string    `json:"targets,omitempty"`
	Error   string      `json:"error,omitempty"`
	At      time.Time   `json:"at"`
}

// Topic returns the default routing subject for the record.
func (t Traffic) Topic() string { return "mics.traffic." + string(t.Kind) }
