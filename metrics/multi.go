package metrics

type multiTimer []Timer

func (ts multiTimer) ObserveDuration() {
	for _, t := range ts {
		t.ObserveDuration()
	}
}

type multiBus []BusMetrics

func (ms multiBus) EventSent(t string, delivered bool) {
	for _, m := range ms {
		m.EventSent(t, delivered)
	}
}

func (ms multiBus) EventResolved(t string, success bool) {
	for _, m := range ms {
		m.EventResolved(t, success)
	}
}

func (ms multiBus) BroadcastSent(t string, fanout int) {
	for _, m := range ms {
		m.BroadcastSent(t, fanout)
	}
}

func (ms multiBus) MailboxDepth(actor string, depth int) {
	for _, m := range ms {
		m.MailboxDepth(actor, depth)
	}
}

type multiActor []ActorMetrics

func (ms multiActor) MessageDuration(t string) Timer {
	ts := make(multiTimer, len(ms))
	for i, m := range ms {
		ts[i] = m.MessageDuration(t)
	}

	return ts
}

func (ms multiActor) MessageProcessed(t string, success bool) {
	for _, m := range ms {
		m.MessageProcessed(t, success)
	}
}

func (ms multiActor) HandlerPanic(t string) {
	for _, m := range ms {
		m.HandlerPanic(t)
	}
}

func (ms multiActor) ActorState(actor, state string) {
	for _, m := range ms {
		m.ActorState(actor, state)
	}
}

// MultiBusMetrics reports to every non-nil backend. With none it returns
// NopBusMetrics.
func MultiBusMetrics(backends ...BusMetrics) BusMetrics {
	var ms multiBus

	for _, b := range backends {
		if b != nil {
			ms = append(ms, b)
		}
	}

	switch len(ms) {
	case 0:
		return NopBusMetrics()
	case 1:
		return ms[0]
	}

	return ms
}

// MultiActorMetrics reports to every non-nil backend. With none it returns
// NopActorMetrics.
func MultiActorMetrics(backends ...ActorMetrics) ActorMetrics {
	var ms multiActor

	for _, b := range backends {
		if b != nil {
			ms = append(ms, b)
		}
	}

	switch len(ms) {
	case 0:
		return NopActorMetrics()
	case 1:
		return ms[0]
	}

	return ms
}
