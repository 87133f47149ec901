package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	cbus "github.com/next-trace/scg-mics/contract/bus"
	berr "github.com/next-trace/scg-mics/contract/errors"
)

// Writer is a minimal Kafka-like writer interface.
// Users can adapt franz-go (see NewWithKgo) or any other client to this.
type Writer interface {
	Write(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// Adapter implements cbus.Adapter using an injected Writer.
type Adapter struct {
	Writer Writer
	// Topic receives every record when set; otherwise the record's own topic is used.
	Topic string
}

var _ cbus.Adapter = (*Adapter)(nil)

// New creates a new Kafka adapter instance with the provided writer.
func New(w Writer) *Adapter { return &Adapter{Writer: w} }

// PublishTraffic writes rec as JSON. Records are keyed by message type unless
// opts.Key is set, so one type's records stay ordered within a partition.
func (a *Adapter) PublishTraffic(ctx context.Context, rec cbus.Traffic, opts cbus.PublishOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Writer == nil {
		return fmt.Errorf("kafka publish: %w", berr.ErrTapNotConfigured)
	}

	val, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("kafka publish serialize: %w", errors.Join(berr.ErrSerializationFailed, err))
	}

	topic := a.topicFor(rec, opts)

	key := []byte(rec.Type)
	if opts.Key != "" {
		key = []byte(opts.Key)
	}

	if err = a.Writer.Write(ctx, topic, key, val, publishHeaders(rec, opts)); err != nil {
		return wrapProduceErr(topic, err)
	}

	return nil
}

// helpers

func (a *Adapter) topicFor(rec cbus.Traffic, o cbus.PublishOptions) string {
	switch {
	case o.TopicOverride != "":
		return o.TopicOverride
	case a.Topic != "":
		return a.Topic
	default:
		return rec.Topic()
	}
}

func publishHeaders(rec cbus.Traffic, o cbus.PublishOptions) map[string]string {
	h := make(map[string]string, len(o.Headers)+1)
	for k, v := range o.Headers {
		h[k] = v
	}

	h["kind"] = string(rec.Kind)

	return h
}

func wrapProduceErr(topic string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	return fmt.Errorf("kafka publish to %q: %w", topic, errors.Join(berr.ErrPublishFailed, err))
}
