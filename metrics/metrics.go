// Package metrics provides abstract metrics interfaces that allow pluggable
// instrumentation backends (Prometheus, OpenTelemetry) without coupling the
// bus and the actor runtime to any specific implementation.
package metrics

// Timer measures the duration of an operation. Call ObserveDuration when
// the operation completes to record the elapsed time.
type Timer interface {
	ObserveDuration()
}

// BusMetrics is implemented by backends that observe dispatch decisions.
type BusMetrics interface {
	// EventSent records an event send; delivered is false when nobody could take it.
	EventSent(msgType string, delivered bool)
	// EventResolved records a completion (success) or failure of a pending event.
	EventResolved(msgType string, success bool)
	// BroadcastSent records a broadcast and the number of mailboxes it reached.
	BroadcastSent(msgType string, fanout int)
	// MailboxDepth reports the queue length of an actor's mailbox after an enqueue.
	MailboxDepth(actor string, depth int)
}

// ActorMetrics is implemented by backends that observe the actor runtime.
type ActorMetrics interface {
	MessageDuration(msgType string) Timer
	MessageProcessed(msgType string, success bool)
	HandlerPanic(msgType string)
	ActorState(actor string, state string)
}
