package memory

import (
	"context"
	"testing"

	cbus "github.com/next-trace/scg-mics/contract/bus"
	"github.com/next-trace/scg-mics/messagebus"
)

type testEvt struct{ cbus.EventOf[string] }

type testBroadcast struct{ cbus.BroadcastOf }

func TestNewMemoryBus_BasicFlow(t *testing.T) {
	b, rec, cleanup := New(nil)
	defer cleanup()

	a := cbus.NewRef("worker")
	b.Register(a)
	messagebus.SubscribeEvent[*testEvt](b, a)
	messagebus.SubscribeBroadcast[testBroadcast](b, a)

	e := &testEvt{}

	f, ok := messagebus.SendEvent(b, e)
	if !ok {
		t.Fatalf("send: no subscriber")
	}

	m, err := b.AwaitMessage(context.Background(), a)
	if err != nil || m != cbus.Message(e) {
		t.Fatalf("await: %v %v", m, err)
	}

	messagebus.Complete(b, e, "ok")

	if v, _ := f.TryGet(); v != "ok" {
		t.Fatalf("unexpected result: %q", v)
	}

	if n := b.SendBroadcast(testBroadcast{}); n != 1 {
		t.Fatalf("fanout=%d", n)
	}

	// Close flushes the tap; a second close is a no-op
	if err := b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if n := len(rec.Records()); n != 3 {
		t.Fatalf("expected 3 traffic records, got %d", n)
	}
}
