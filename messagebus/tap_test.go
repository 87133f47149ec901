package messagebus_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/next-trace/scg-mics/adapters/inmemory"
	cbus "github.com/next-trace/scg-mics/contract/bus"
	"github.com/next-trace/scg-mics/messagebus"
)

func Test_TapRecordsTraffic(t *testing.T) {
	rec := inmemory.New()
	b := messagebus.New(messagebus.WithTap(rec, cbus.PublishOptions{}))

	a := cbus.NewRef("A")
	b.Register(a)
	messagebus.SubscribeEvent[*ping](b, a)
	messagebus.SubscribeBroadcast[tick](b, a)

	e1, e2 := &ping{}, &ping{}
	messagebus.SendEvent(b, e1)
	messagebus.SendEvent(b, e2)
	messagebus.Complete(b, e1, "ok")
	b.Fail(e2, errors.New("nope"))
	b.SendBroadcast(tick{N: 1})

	if err := b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got := rec.Records()
	if len(got) != 5 {
		t.Fatalf("records=%d", len(got))
	}

	if got[0].Kind != cbus.TrafficEventSent || got[0].Type != "messagebus_test.ping" || got[0].Targets[0] != "A" {
		t.Fatalf("first record=%+v", got[0])
	}

	if got[3].Kind != cbus.TrafficEventFailed || got[3].Error != "nope" {
		t.Fatalf("fail record=%+v", got[3])
	}

	for i := 1; i < len(got); i++ {
		if got[i].Seq <= got[i-1].Seq {
			t.Fatalf("sequence must increase: %d then %d", got[i-1].Seq, got[i].Seq)
		}
	}

	// emits after close are ignored
	b.SendBroadcast(tick{N: 2})

	if n := len(rec.Records()); n != 5 {
		t.Fatalf("records after close=%d", n)
	}
}

type blockingPublisher struct {
	release chan struct{}
	mu      sync.Mutex
	n       int
}

func (p *blockingPublisher) PublishTraffic(ctx context.Context, _ cbus.Traffic, _ cbus.PublishOptions) error {
	<-p.release

	p.mu.Lock()
	p.n++
	p.mu.Unlock()

	return nil
}

func Test_SlowTapDoesNotStallDispatch(t *testing.T) {
	pub := &blockingPublisher{release: make(chan struct{})}
	b := messagebus.New(
		messagebus.WithTap(pub, cbus.PublishOptions{}),
		messagebus.WithTapBuffer(2),
		messagebus.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	a := cbus.NewRef("A")
	b.Register(a)
	messagebus.SubscribeBroadcast[tick](b, a)

	for i := range 10 {
		b.SendBroadcast(tick{N: i})
	}

	if b.MailboxLen(a) != 10 {
		t.Fatalf("dispatch must not wait on the publisher, len=%d", b.MailboxLen(a))
	}

	close(pub.release)
	_ = b.Close()

	pub.mu.Lock()
	defer pub.mu.Unlock()

	// one record in flight plus a full buffer; the rest were dropped
	if pub.n < 2 || pub.n > 3 {
		t.Fatalf("published=%d", pub.n)
	}
}

func Test_TapCloseWhileDispatching(t *testing.T) {
	rec := inmemory.New()
	b := messagebus.New(
		messagebus.WithTap(rec, cbus.PublishOptions{}),
		messagebus.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	a := cbus.NewRef("A")
	b.Register(a)
	messagebus.SubscribeBroadcast[tick](b, a)
	messagebus.SubscribeEvent[*ping](b, a)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for n := range 200 {
				if i%2 == 0 {
					b.SendBroadcast(tick{N: n})
				} else {
					messagebus.SendEvent(b, &ping{N: n})
				}
			}
		}()
	}

	if err := b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	wg.Wait()

	if n := len(rec.Records()); n > 1600 {
		t.Fatalf("records=%d", n)
	}
}

type fakeBusMetrics struct {
	mu       sync.Mutex
	sent     map[string]int
	absent   map[string]int
	ok, fail int
	fanout   map[string]int
	maxDepth int
}

func newFakeBusMetrics() *fakeBusMetrics {
	return &fakeBusMetrics{sent: map[string]int{}, absent: map[string]int{}, fanout: map[string]int{}}
}

func (m *fakeBusMetrics) EventSent(typ string, delivered bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if delivered {
		m.sent[typ]++
	} else {
		m.absent[typ]++
	}
}

func (m *fakeBusMetrics) EventResolved(_ string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if success {
		m.ok++
	} else {
		m.fail++
	}
}

func (m *fakeBusMetrics) BroadcastSent(typ string, n int) {
	m.mu.Lock()
	m.fanout[typ] += n
	m.mu.Unlock()
}

func (m *fakeBusMetrics) MailboxDepth(_ string, depth int) {
	m.mu.Lock()
	m.maxDepth = max(m.maxDepth, depth)
	m.mu.Unlock()
}

func Test_MetricsObserveDispatch(t *testing.T) {
	m := newFakeBusMetrics()
	b := messagebus.New(messagebus.WithMetrics(m))

	a, c := cbus.NewRef("A"), cbus.NewRef("C")
	b.Register(a)
	b.Register(c)
	messagebus.SubscribeEvent[*ping](b, a)
	messagebus.SubscribeBroadcast[tick](b, a)
	messagebus.SubscribeBroadcast[tick](b, c)

	e := &ping{}
	messagebus.SendEvent(b, e)
	messagebus.SendEvent(b, &pong{})
	messagebus.Complete(b, e, "x")
	b.SendBroadcast(tick{})

	if m.sent["messagebus_test.ping"] != 1 || m.absent["messagebus_test.pong"] != 1 {
		t.Fatalf("sent=%v absent=%v", m.sent, m.absent)
	}

	if m.ok != 1 || m.fail != 0 {
		t.Fatalf("ok=%d fail=%d", m.ok, m.fail)
	}

	if m.fanout["messagebus_test.tick"] != 2 || m.maxDepth != 2 {
		t.Fatalf("fanout=%v depth=%d", m.fanout, m.maxDepth)
	}
}

func Test_TypeName(t *testing.T) {
	if got := messagebus.TypeName(&ping{}); got != "messagebus_test.ping" {
		t.Fatalf("got %q", got)
	}

	if got := messagebus.TypeName(tick{}); got != "messagebus_test.tick" {
		t.Fatalf("got %q", got)
	}

	if got := messagebus.TypeName(nil); got != "<nil>" {
		t.Fatalf("got %q", got)
	}
}
