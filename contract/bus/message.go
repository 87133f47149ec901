package bus

// Message is the supertype of every value carried by the bus.
// Dispatch keys on the dynamic (concrete) type of a message.
type Message interface{}

// Event is a point-to-point message whose handler produces exactly one result of type R.
// Only pointers to types embedding EventOf[R] satisfy Event, so the bus can track
// the exact instance that was sent.
type Event[R any] interface {
	Message
	eventResult(R)
}

// EventOf is embedded by event types to declare their result type.
//
//	type DetectObjects struct {
//		bus.EventOf[bool]
//		Time int
//	}
type EventOf[R any] struct {
	// non-zero size keeps the addresses of distinct events distinct
	_ byte
}

func (*EventOf[R]) eventResult(R) {}

// Broadcast is a fan-out message with no result channel.
type Broadcast interface {
	Message
	broadcast()
}

// BroadcastOf is embedded by broadcast types.
type BroadcastOf struct{}

func (BroadcastOf) broadcast() {}
