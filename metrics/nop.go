package metrics

type nopTimer struct{}

func (nopTimer) ObserveDuration() {}

type nopBus struct{}

func (nopBus) EventSent(string, bool)     {}
func (nopBus) EventResolved(string, bool) {}
func (nopBus) BroadcastSent(string, int)  {}
func (nopBus) MailboxDepth(string, int)   {}

type nopActor struct{}

func (nopActor) MessageDuration(string) Timer  { return nopTimer{} }
func (nopActor) MessageProcessed(string, bool) {}
func (nopActor) HandlerPanic(string)           {}
func (nopActor) ActorState(string, string)     {}

// NopTimer returns a no-op Timer.
func NopTimer() Timer { return nopTimer{} }

// NopBusMetrics returns a BusMetrics that records nothing.
func NopBusMetrics() BusMetrics { return nopBus{} }

// NopActorMetrics returns an ActorMetrics that records nothing.
func NopActorMetrics() ActorMetrics { return nopActor{} }
