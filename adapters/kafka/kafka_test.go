package kafka_test

import (
	"context"
	"errors"
	"testing"

	"github.com/next-trace/scg-mics/adapters/kafka"
	cbus "github.com/next-trace/scg-mics/contract/bus"
	berr "github.com/next-trace/scg-mics/contract/errors"
)

type fakeWriter struct {
	calls []struct {
		topic   string
		key     []byte
		value   []byte
		headers map[string]string
	}
	err error
}

func (f *fakeWriter) Write(_ context.Context, topic string, key, value []byte, headers map[string]string) error {
	f.calls = append(f.calls, struct {
		topic   string
		key     []byte
		value   []byte
		headers map[string]string
	}{topic, key, value, headers})

	return f.err
}

func TestKafka_PublishTraffic(t *testing.T) {
	fw := &fakeWriter{}
	ad := kafka.New(fw)

	rec := cbus.Traffic{Seq: 1, Kind: cbus.TrafficBroadcastSent, Type: "slam.TickBroadcast", Targets: []string{"camera-1"}}
	if err := ad.PublishTraffic(t.Context(), rec, cbus.PublishOptions{Headers: map[string]string{"h": "1"}}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(fw.calls) != 1 {
		t.Fatalf("want 1, got %d", len(fw.calls))
	}

	c := fw.calls[0]
	if c.topic != "mics.traffic.broadcast.sent" {
		t.Fatalf("topic: %s", c.topic)
	}

	if string(c.key) != "slam.TickBroadcast" {
		t.Fatalf("records must be keyed by type, got %s", c.key)
	}

	if len(c.value) == 0 {
		t.Fatalf("value empty")
	}

	if c.headers["h"] != "1" || c.headers["kind"] != "broadcast.sent" {
		t.Fatalf("headers: %+v", c.headers)
	}
}

func TestKafka_TopicAndKeyPrecedence(t *testing.T) {
	fw := &fakeWriter{}
	ad := kafka.New(fw)
	ad.Topic = "bus-audit"

	rec := cbus.Traffic{Kind: cbus.TrafficEventSent, Type: "slam.PoseEvent"}

	if err := ad.PublishTraffic(t.Context(), rec, cbus.PublishOptions{}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if err := ad.PublishTraffic(t.Context(), rec, cbus.PublishOptions{TopicOverride: "other", Key: "key1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if fw.calls[0].topic != "bus-audit" || fw.calls[1].topic != "other" {
		t.Fatalf("topics: %s, %s", fw.calls[0].topic, fw.calls[1].topic)
	}

	if string(fw.calls[1].key) != "key1" {
		t.Fatalf("key: %s", fw.calls[1].key)
	}
}

func TestKafka_NilWriterError(t *testing.T) {
	ad := kafka.New(nil)
	if err := ad.PublishTraffic(t.Context(), cbus.Traffic{}, cbus.PublishOptions{}); !errors.Is(err, berr.ErrTapNotConfigured) {
		t.Fatalf("want ErrTapNotConfigured, got %v", err)
	}
}

func TestKafka_WriteErrors(t *testing.T) {
	ad := kafka.New(&fakeWriter{err: errors.New("broker down")})
	if err := ad.PublishTraffic(t.Context(), cbus.Traffic{}, cbus.PublishOptions{}); !errors.Is(err, berr.ErrPublishFailed) {
		t.Fatalf("want ErrPublishFailed, got %v", err)
	}

	ad = kafka.New(&fakeWriter{err: context.DeadlineExceeded})
	if err := ad.PublishTraffic(t.Context(), cbus.Traffic{}, cbus.PublishOptions{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want DeadlineExceeded, got %v", err)
	}
}

func TestNewWithKgo_NoBrokers(t *testing.T) {
	if _, _, err := kafka.NewWithKgo(kafka.Config{}); !errors.Is(err, berr.ErrTapNotConfigured) {
		t.Fatalf("want ErrTapNotConfigured, got %v", err)
	}
}
