package messagebus

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	cbus "github.com/next-trace/scg-mics/contract/bus"
)

const tapPublishTimeout = 5 * time.Second

// tap forwards traffic records to a TrafficPublisher from its own goroutine,
// so a slow broker never stalls dispatch. ch is never closed: emit may race
// with close, and a record slipping in after stop is simply not published.
type tap struct {
	pub  cbus.TrafficPublisher
	opts cbus.PublishOptions
	log  *slog.Logger

	ch     chan cbus.Traffic
	closed atomic.Bool
	stop   chan struct{}
	done   chan struct{}
}

func newTap(pub cbus.TrafficPublisher, opts cbus.PublishOptions, buf int, log *slog.Logger) *tap {
	t := &tap{
		pub:  pub,
		opts: opts,
		log:  log,
		ch:   make(chan cbus.Traffic, buf),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go t.run()

	return t
}

func (t *tap) emit(rec cbus.Traffic) {
	if t.closed.Load() {
		return
	}

	select {
	case t.ch <- rec:
	default:
		t.log.Warn("traffic tap full, dropping record", slog.String("kind", string(rec.Kind)), slog.Uint64("seq", rec.Seq))
	}
}

func (t *tap) run() {
	defer close(t.done)

	for {
		select {
		case rec := <-t.ch:
			t.publish(rec)
		case <-t.stop:
			for {
				select {
				case rec := <-t.ch:
					t.publish(rec)
				default:
					return
				}
			}
		}
	}
}

func (t *tap) publish(rec cbus.Traffic) {
	ctx, cancel := context.WithTimeout(context.Background(), tapPublishTimeout)
	defer cancel()

	if err := t.pub.PublishTraffic(ctx, rec, t.opts); err != nil {
		t.log.Warn("traffic publish failed", slog.String("kind", string(rec.Kind)), slog.Any("err", err))
	}
}

// close stops accepting records and waits until the buffered ones are published.
func (t *tap) close() {
	if t.closed.CompareAndSwap(false, true) {
		close(t.stop)
	}

	<-t.done
}
