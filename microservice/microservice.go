package microservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	cbus "github.com/next-trace/scg-mics/contract/bus"
	berr "github.com/next-trace/scg-mics/contract/errors"
	"github.com/next-trace/scg-mics/messagebus"
	"github.com/next-trace/scg-mics/metrics"
)

// Initializer binds the handlers of an actor. It runs on the actor goroutine
// after the mailbox exists and before the first message is taken.
type Initializer func(ctx context.Context, m *MicroService) error

type binding struct {
	h     Handler
	event bool // the message carries a promise to fail on error
}

// MicroService is an actor with its own mailbox and handler table.
// It implements cbus.Actor; its identity is the pointer.
type MicroService struct {
	name string
	id   string
	bus  *messagebus.Bus
	init Initializer

	logger  *slog.Logger
	metrics metrics.ActorMetrics
	mws     []Middleware

	mu       sync.RWMutex
	handlers map[reflect.Type]binding

	state    atomic.Int32
	started  atomic.Bool
	ready    chan struct{}
	done     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
}

// Option configures a MicroService.
type Option func(*MicroService)

// WithLogger sets the structured logger. A nil logger keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *MicroService) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMetrics installs a metrics backend.
func WithMetrics(am metrics.ActorMetrics) Option {
	return func(m *MicroService) {
		if am != nil {
			m.metrics = am
		}
	}
}

// WithMiddleware appends handler middleware.
func WithMiddleware(mw ...Middleware) Option {
	return func(m *MicroService) { m.mws = append(m.mws, mw...) }
}

// New creates an actor named name on bus b. init may be nil.
func New(name string, b *messagebus.Bus, init Initializer, opts ...Option) *MicroService {
	m := &MicroService{
		name:     name,
		id:       uuid.NewString(),
		bus:      b,
		init:     init,
		logger:   slog.Default(),
		metrics:  metrics.NopActorMetrics(),
		handlers: make(map[reflect.Type]binding),
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
		stop:     make(chan struct{}),
	}

	for _, o := range opts {
		o(m)
	}

	m.logger = m.logger.With(slog.String("actor", name))

	return m
}

func (m *MicroService) Name() string { return m.name }

// ID returns the unique identity assigned at construction.
func (m *MicroService) ID() string { return m.id }

func (m *MicroService) String() string { return m.name + "#" + m.id }

func (m *MicroService) State() State { return State(m.state.Load()) }

// Ready is closed once the initializer returned and the actor takes messages.
// It is never closed when initialization fails.
func (m *MicroService) Ready() <-chan struct{} { return m.ready }

// Done is closed when Run returns.
func (m *MicroService) Done() <-chan struct{} { return m.done }

// Logger returns the actor's logger, already tagged with its name.
func (m *MicroService) Logger() *slog.Logger { return m.logger }

// Bus returns the bus the actor is attached to.
func (m *MicroService) Bus() *messagebus.Bus { return m.bus }

// Terminate asks the actor to stop after the message it is handling, if any.
// It is safe to call from any goroutine and more than once.
func (m *MicroService) Terminate() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *MicroService) terminated() bool {
	select {
	case <-m.stop:
		return true
	default:
		return false
	}
}

// Run registers the actor, runs the initializer and then handles messages
// until Terminate is called or ctx is done. The actor is always unregistered
// on return.
//
// Run returns nil after Terminate, ctx.Err() when ctx ends first and the
// initializer's error when initialization fails.
func (m *MicroService) Run(ctx context.Context) error {
	if !m.started.CompareAndSwap(false, true) {
		return fmt.Errorf("run %s: %w", m.name, berr.ErrAlreadyStarted)
	}

	defer close(m.done)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-m.stop:
			cancel()
		case <-runCtx.Done():
		}
	}()

	m.bus.Register(m)
	defer m.shutdown()

	m.setState(StateInitializing)

	if m.init != nil {
		if err := m.safeInit(runCtx); err != nil {
			m.logger.Error("initialization failed", slog.Any("err", err))
			return fmt.Errorf("init %s: %w", m.name, err)
		}
	}

	m.setState(StateRunning)
	close(m.ready)

	for !m.terminated() {
		msg, err := m.bus.AwaitMessage(runCtx, m)
		if err != nil {
			switch {
			case m.terminated():
				return nil
			case ctx.Err() != nil:
				return ctx.Err()
			default:
				return err
			}
		}

		m.handle(runCtx, msg)
	}

	return nil
}

func (m *MicroService) shutdown() {
	m.setState(StateTerminating)
	m.bus.Unregister(m)
	m.setState(StateTerminated)
	m.logger.Debug("actor stopped")
}

func (m *MicroService) setState(s State) {
	m.state.Store(int32(s))
	m.metrics.ActorState(m.name, s.String())
}

func (m *MicroService) safeInit(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return m.init(ctx, m)
}

// handle runs the bound handler of msg and contains its failure. Failing the
// event is a no-op when the handler already completed it.
func (m *MicroService) handle(ctx context.Context, msg cbus.Message) {
	t := reflect.TypeOf(msg)
	typ := messagebus.TypeName(msg)

	m.mu.RLock()
	b, ok := m.handlers[t]
	m.mu.RUnlock()

	if !ok {
		m.logger.Debug("no handler, dropping message", slog.String("type", typ))
		m.bus.Fail(msg, fmt.Errorf("actor %s has no handler for %s: %w", m.name, typ, berr.ErrHandlerFailed))

		return
	}

	timer := m.metrics.MessageDuration(typ)
	err := m.invoke(ctx, b.h, msg, typ)
	timer.ObserveDuration()
	m.metrics.MessageProcessed(typ, err == nil)

	if err == nil {
		return
	}

	if b.event {
		m.bus.Fail(msg, fmt.Errorf("actor %s handle %s: %w", m.name, typ, err))
	}

	m.logger.Warn("handler failed", slog.String("type", typ), slog.Any("err", err))
}

func (m *MicroService) invoke(ctx context.Context, h Handler, msg cbus.Message, typ string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			m.metrics.HandlerPanic(typ)
			m.logger.Error("handler panicked",
				slog.String("type", typ), slog.Any("panic", r), slog.String("stack", string(debug.Stack())))

			err = fmt.Errorf("panic: %v: %w", r, berr.ErrHandlerFailed)
		}
	}()

	err = h(ctx, msg)
	if err != nil && !errors.Is(err, berr.ErrHandlerFailed) {
		err = fmt.Errorf("%w: %w", berr.ErrHandlerFailed, err)
	}

	return err
}

// bind installs h for t and subscribes on the bus the first time t is bound.
// Binding t again replaces the handler without adding a rotation slot.
func (m *MicroService) bind(t reflect.Type, h Handler, event bool) {
	m.mu.Lock()
	_, existed := m.handlers[t]
	m.handlers[t] = binding{h: chain(h, m.mws), event: event}
	m.mu.Unlock()

	if existed {
		return
	}

	if event {
		m.bus.SubscribeEventType(t, m)
	} else {
		m.bus.SubscribeBroadcastType(t, m)
	}
}

// SendBroadcast fans b out to every subscriber and returns how many received it.
func (m *MicroService) SendBroadcast(b cbus.Message) int { return m.bus.SendBroadcast(b) }

// Fail resolves the promise of event e with err as failure indicator.
func (m *MicroService) Fail(e cbus.Message, err error) bool { return m.bus.Fail(e, err) }
