package messagebus

import (
	"fmt"
	"log/slog"
	"reflect"

	cbus "github.com/next-trace/scg-mics/contract/bus"
	berr "github.com/next-trace/scg-mics/contract/errors"
	"github.com/next-trace/scg-mics/future"
)

// pending is the promise bookkeeping for one in-flight event.
type pending struct {
	fut  any // *future.Future[R] for the event's R
	fail func(error) bool
	typ  string
}

// SendEvent routes e to exactly one subscriber of its concrete type, chosen
// round robin, and returns the promise of its result.
//
// ok is false when no live subscriber exists; nothing is enqueued in that case.
// Sending an instance that is still pending returns its existing promise
// without delivering it a second time.
func SendEvent[R any](b *Bus, e cbus.Event[R]) (f *future.Future[R], ok bool) {
	if e == nil {
		return nil, false
	}

	if v := reflect.ValueOf(e); v.Kind() == reflect.Ptr && v.IsNil() {
		return nil, false
	}

	t := reflect.TypeOf(e)
	name := typeName(t)

	subs := b.events.lookup(t)
	if subs == nil {
		b.noSubscribers(name)
		return nil, false
	}

	f = future.New[R]()
	p := &pending{fut: f, fail: f.Fail, typ: name}

	if prev, loaded := b.pending.LoadOrStore(cbus.Message(e), p); loaded {
		existing, same := prev.(*pending).fut.(*future.Future[R])
		return existing, same
	}
	b.npending.Add(1)

	// The promise is recorded before delivery so a fast handler always finds it.
	target, delivered := b.deliverEvent(subs, e)
	if !delivered {
		// a concurrent resend of e may already hold p
		if b.pending.CompareAndDelete(cbus.Message(e), p) {
			b.npending.Add(-1)
			p.fail(fmt.Errorf("send %s: %w", name, berr.ErrNoSubscribers))
		}

		b.noSubscribers(name)

		return nil, false
	}

	b.metrics.EventSent(name, true)
	b.emit(cbus.TrafficEventSent, name, []string{target.Name()}, nil)

	return f, true
}

// deliverEvent pops the front of the rotation, pushes it to the back and
// enqueues m into its mailbox, all under the entry lock. Subscribers without
// a live mailbox are rotated past.
func (b *Bus) deliverEvent(subs *subscribers, m cbus.Message) (cbus.Actor, bool) {
	subs.mu.Lock()
	defer subs.mu.Unlock()

	for range len(subs.actors) {
		a := subs.rotateLocked()

		mb := b.mailbox(a)
		if mb == nil {
			b.logger.Warn("skipping subscriber without mailbox",
				slog.String("actor", a.Name()), slog.String("type", TypeName(m)))

			continue
		}

		if depth, ok := mb.push(m); ok {
			b.metrics.MailboxDepth(a.Name(), depth)
			return a, true
		}
	}

	return nil, false
}

func (b *Bus) noSubscribers(name string) {
	b.metrics.EventSent(name, false)
	b.logger.Debug("event has no subscribers", slog.String("type", name), slog.Any("reason", berr.ErrNoSubscribers))
}

// SendBroadcast enqueues m into the mailbox of every actor subscribed to its
// concrete type, in subscription order, and returns how many received it.
// The subscriber set is read under the same lock used to change it, so actors
// added or removed concurrently either fully see the broadcast or not at all.
func (b *Bus) SendBroadcast(m cbus.Message) int {
	if m == nil {
		return 0
	}

	t := reflect.TypeOf(m)
	name := typeName(t)

	subs := b.broadcasts.lookup(t)
	if subs == nil {
		b.metrics.BroadcastSent(name, 0)
		return 0
	}

	subs.mu.Lock()
	targets := make([]string, 0, len(subs.actors))

	for _, a := range subs.actors {
		mb := b.mailbox(a)
		if mb == nil {
			continue
		}

		if depth, ok := mb.push(m); ok {
			targets = append(targets, a.Name())
			b.metrics.MailboxDepth(a.Name(), depth)
		}
	}
	subs.mu.Unlock()

	b.metrics.BroadcastSent(name, len(targets))
	b.emit(cbus.TrafficBroadcastSent, name, targets, nil)

	return len(targets)
}

// Complete resolves the promise of e with result. It reports false, and does
// nothing, when e has no pending promise (never sent, or already completed).
func Complete[R any](b *Bus, e cbus.Event[R], result R) bool {
	if e == nil {
		return false
	}

	p, ok := b.take(e)
	if !ok {
		return false
	}

	f, ok := p.fut.(*future.Future[R])
	if !ok {
		// unreachable through the typed API; keep the sender from blocking anyway
		p.fail(fmt.Errorf("complete %s: result type mismatch: %w", p.typ, berr.ErrHandlerFailed))
		b.resolved(p.typ, false, berr.ErrHandlerFailed)

		return false
	}

	f.Resolve(result)
	b.resolved(p.typ, true, nil)

	return true
}

// Fail resolves the promise of the event m with err as failure indicator.
// Like Complete, it is a no-op for events without a pending promise.
func (b *Bus) Fail(m cbus.Message, err error) bool {
	if m == nil {
		return false
	}

	p, ok := b.take(m)
	if !ok {
		return false
	}

	if err == nil {
		err = berr.ErrHandlerFailed
	}

	p.fail(err)
	b.resolved(p.typ, false, err)

	return true
}

// take removes the pending entry of m; removal and resolution always happen together.
// Only pointers can carry a promise; value messages are broadcasts and hashing
// them may panic when an interface field holds a slice or map.
func (b *Bus) take(m cbus.Message) (*pending, bool) {
	if reflect.TypeOf(m).Kind() != reflect.Ptr {
		return nil, false
	}

	v, ok := b.pending.LoadAndDelete(m)
	if !ok {
		return nil, false
	}
	b.npending.Add(-1)

	return v.(*pending), true
}

func (b *Bus) resolved(typ string, success bool, err error) {
	b.metrics.EventResolved(typ, success)

	kind := cbus.TrafficEventCompleted
	if !success {
		kind = cbus.TrafficEventFailed
	}

	b.emit(kind, typ, nil, err)
}
