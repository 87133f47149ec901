package microservice

import (
	"context"
	"reflect"

	cbus "github.com/next-trace/scg-mics/contract/bus"
	"github.com/next-trace/scg-mics/future"
	"github.com/next-trace/scg-mics/messagebus"
)

// SubscribeEvent binds h to event type E. The runtime completes each event
// with h's result, or fails it when h returns an error or panics.
func SubscribeEvent[E cbus.Event[R], R any](m *MicroService, h func(ctx context.Context, e E) (R, error)) {
	m.bind(reflect.TypeFor[E](), func(ctx context.Context, msg cbus.Message) error {
		e := msg.(E)

		v, err := h(ctx, e)
		if err != nil {
			return err
		}

		messagebus.Complete[R](m.bus, e, v)

		return nil
	}, true)
}

// SubscribeEventDeferred binds h to event type E without completing it.
// The handler, or whoever it hands the event to, completes it later through
// Complete; an error or panic from h fails the event instead.
func SubscribeEventDeferred[E cbus.Message](m *MicroService, h func(ctx context.Context, e E) error) {
	m.bind(reflect.TypeFor[E](), func(ctx context.Context, msg cbus.Message) error {
		return h(ctx, msg.(E))
	}, true)
}

// SubscribeBroadcast binds h to broadcast type B. Errors and panics are logged and absorbed.
func SubscribeBroadcast[B cbus.Message](m *MicroService, h func(ctx context.Context, b B) error) {
	m.bind(reflect.TypeFor[B](), func(ctx context.Context, msg cbus.Message) error {
		return h(ctx, msg.(B))
	}, false)
}

// SendEvent routes e to one subscriber. ok is false when nobody subscribes to its type.
func SendEvent[R any](m *MicroService, e cbus.Event[R]) (*future.Future[R], bool) {
	return messagebus.SendEvent(m.bus, e)
}

// Complete resolves the promise of e with v.
func Complete[R any](m *MicroService, e cbus.Event[R], v R) bool {
	return messagebus.Complete(m.bus, e, v)
}
