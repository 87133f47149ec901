package messagebus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	cbus "github.com/next-trace/scg-mics/contract/bus"
	berr "github.com/next-trace/scg-mics/contract/errors"
	"github.com/next-trace/scg-mics/metrics"
)

// Bus is the dispatch engine shared by every actor of a process.
// It is concurrency-safe and contains no global state: construct one and
// inject it into the actors that should talk to each other.
type Bus struct {
	mu        sync.RWMutex
	mailboxes map[cbus.Actor]*mailbox

	events     *registry // event type -> rotation
	broadcasts *registry // broadcast type -> ordered set

	pending  sync.Map // cbus.Message (event instance) -> *pending
	npending atomic.Int64
	seq      atomic.Uint64

	logger  *slog.Logger
	metrics metrics.BusMetrics
	tap     *tap

	tapPub  cbus.TrafficPublisher
	tapOpts cbus.PublishOptions
	tapBuf  int
}

// BusOption configures a Bus instance.
type BusOption func(*Bus)

// WithLogger sets the structured logger. A nil logger keeps slog.Default().
func WithLogger(l *slog.Logger) BusOption {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithMetrics installs a metrics backend.
func WithMetrics(m metrics.BusMetrics) BusOption {
	return func(b *Bus) {
		if m != nil {
			b.metrics = m
		}
	}
}

// WithTap mirrors traffic metadata to pub. Records are published from a
// background goroutine and dropped (with a warning) when the buffer is full.
func WithTap(pub cbus.TrafficPublisher, opts cbus.PublishOptions) BusOption {
	return func(b *Bus) {
		b.tapPub = pub
		b.tapOpts = opts
	}
}

// WithTapBuffer sets the number of traffic records buffered ahead of the publisher (default 1024).
func WithTapBuffer(n int) BusOption {
	return func(b *Bus) {
		if n > 0 {
			b.tapBuf = n
		}
	}
}

// New constructs a new Bus.
func New(opts ...BusOption) *Bus {
	b := &Bus{
		mailboxes:  make(map[cbus.Actor]*mailbox),
		events:     newRegistry(false),
		broadcasts: newRegistry(true),
		logger:     slog.Default(),
		metrics:    metrics.NopBusMetrics(),
		tapBuf:     1024,
	}

	for _, o := range opts {
		o(b)
	}

	if b.tapPub != nil {
		b.tap = newTap(b.tapPub, b.tapOpts, b.tapBuf, b.logger)
	}

	return b
}

// Register creates the mailbox of a. Registering twice is a no-op.
func (b *Bus) Register(a cbus.Actor) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.mailboxes[a]; ok {
		return
	}

	b.mailboxes[a] = newMailbox()
	b.logger.Debug("actor registered", slog.String("actor", a.Name()))
}

// Unregister purges a from every subscription and destroys its mailbox.
// Queued messages are discarded; discarded events fail with ErrActorUnregistered.
// It is safe to call for an actor that was never registered.
func (b *Bus) Unregister(a cbus.Actor) {
	// Subscriptions go first: a dispatch holding an entry lock may still push
	// into the mailbox, and such a message must be drained by close below.
	b.events.purge(a)
	b.broadcasts.purge(a)

	b.mu.Lock()
	mb, ok := b.mailboxes[a]
	delete(b.mailboxes, a)
	b.mu.Unlock()

	if !ok {
		return
	}

	rest := mb.close()
	for _, m := range rest {
		b.Fail(m, fmt.Errorf("actor %s: %w", a.Name(), berr.ErrActorUnregistered))
	}

	b.logger.Debug("actor unregistered", slog.String("actor", a.Name()), slog.Int("discarded", len(rest)))
}

// Registered reports whether a currently owns a mailbox.
func (b *Bus) Registered(a cbus.Actor) bool {
	return b.mailbox(a) != nil
}

// MailboxLen returns the number of queued messages of a, or zero if not registered.
func (b *Bus) MailboxLen(a cbus.Actor) int {
	if mb := b.mailbox(a); mb != nil {
		return mb.len()
	}

	return 0
}

// AwaitMessage blocks until the mailbox of a holds a message and returns it.
// It fails with ErrActorNotRegistered when a has no mailbox, including when the
// mailbox is destroyed while waiting, and with ctx.Err() when ctx is done.
func (b *Bus) AwaitMessage(ctx context.Context, a cbus.Actor) (cbus.Message, error) {
	mb := b.mailbox(a)
	if mb == nil {
		return nil, fmt.Errorf("await %s: %w", a.Name(), berr.ErrActorNotRegistered)
	}

	m, err := mb.pop(ctx)
	if errors.Is(err, errMailboxClosed) {
		return nil, fmt.Errorf("await %s: %w", a.Name(), berr.ErrActorNotRegistered)
	}

	return m, err
}

// SubscribeEventOf appends a to the rotation of the sample's concrete event type.
// Provide a zero value of the event type via sample, e.g. (*Ping)(nil).
func (b *Bus) SubscribeEventOf(sample cbus.Message, a cbus.Actor) {
	b.SubscribeEventType(reflect.TypeOf(sample), a)
}

// SubscribeEventType appends a to the rotation of t. Subscribing twice gives a two slots.
func (b *Bus) SubscribeEventType(t reflect.Type, a cbus.Actor) {
	b.events.entry(t).add(a)
}

// SubscribeBroadcastOf adds a to the subscriber set of the sample's concrete type.
func (b *Bus) SubscribeBroadcastOf(sample cbus.Message, a cbus.Actor) {
	b.SubscribeBroadcastType(reflect.TypeOf(sample), a)
}

// SubscribeBroadcastType adds a to the subscriber set of t, keeping insertion order.
func (b *Bus) SubscribeBroadcastType(t reflect.Type, a cbus.Actor) {
	b.broadcasts.entry(t).add(a)
}

// EventSubscribers returns the current rotation of t by actor name, front first.
func (b *Bus) EventSubscribers(t reflect.Type) []string {
	if s := b.events.lookup(t); s != nil {
		return s.names()
	}

	return nil
}

// BroadcastSubscribers returns the subscriber names of t in fan-out order.
func (b *Bus) BroadcastSubscribers(t reflect.Type) []string {
	if s := b.broadcasts.lookup(t); s != nil {
		return s.names()
	}

	return nil
}

// Pending returns the number of events sent but not yet completed.
func (b *Bus) Pending() int { return int(b.npending.Load()) }

// Close stops the traffic tap after flushing buffered records.
func (b *Bus) Close() error {
	if b.tap != nil {
		b.tap.close()
	}

	return nil
}

func (b *Bus) mailbox(a cbus.Actor) *mailbox {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.mailboxes[a]
}

func (b *Bus) emit(kind cbus.TrafficKind, typ string, targets []string, err error) {
	if b.tap == nil {
		return
	}

	rec := cbus.Traffic{
		Seq:     b.seq.Add(1),
		Kind:    kind,
		Type:    typ,
		Targets: targets,
		At:      time.Now().UTC(),
	}
	if err != nil {
		rec.Error = err.Error()
	}

	b.tap.emit(rec)
}

// SubscribeEvent appends a to the rotation of event type E.
func SubscribeEvent[E cbus.Message](b *Bus, a cbus.Actor) {
	b.SubscribeEventType(reflect.TypeFor[E](), a)
}

// SubscribeBroadcast adds a to the subscriber set of broadcast type B.
func SubscribeBroadcast[B cbus.Message](b *Bus, a cbus.Actor) {
	b.SubscribeBroadcastType(reflect.TypeFor[B](), a)
}

// TypeName returns the package-qualified name used for message types in logs,
// metrics and traffic records, e.g. "slam.TickBroadcast" for both the type and
// a pointer to it.
func TypeName(m cbus.Message) string {
	if m == nil {
		return "<nil>"
	}

	return typeName(reflect.TypeOf(m))
}

func typeName(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	return t.String()
}
