package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	cbus "github.com/next-trace/scg-mics/contract/bus"
	berr "github.com/next-trace/scg-mics/contract/errors"
)

// DefaultExchange is the topic exchange traffic records are published to.
const DefaultExchange = "mics.traffic"

type PubMsg struct {
	Exchange   string
	RoutingKey string
	Body       []byte
	Headers    map[string]string
}

type Publisher interface {
	Publish(ctx context.Context, m PubMsg) error
}

type Adapter struct {
	Publisher  Publisher
	Propagator cbus.HeaderPropagator // optional, for context propagation into headers
	Exchange   string
}

var _ cbus.Adapter = (*Adapter)(nil)

func New(p Publisher) *Adapter { return &Adapter{Publisher: p, Exchange: DefaultExchange} }

// NewWithPropagator allows configuring a HeaderPropagator for context propagation.
func NewWithPropagator(p Publisher, hp cbus.HeaderPropagator) *Adapter {
	ad := New(p)
	ad.Propagator = hp

	return ad
}

func (a *Adapter) PublishTraffic(ctx context.Context, rec cbus.Traffic, opts cbus.PublishOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Publisher == nil {
		return fmt.Errorf("rabbitmq publish: %w", berr.ErrTapNotConfigured)
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("rabbitmq publish serialize: %w", errors.Join(berr.ErrSerializationFailed, err))
	}

	msg := PubMsg{
		Exchange:   a.Exchange,
		RoutingKey: routingKey(rec, opts),
		Body:       body,
		Headers:    a.headers(ctx, rec, opts),
	}

	if err := a.Publisher.Publish(ctx, msg); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("rabbitmq publish %s: %w", msg.RoutingKey, errors.Join(berr.ErrPublishFailed, err))
	}

	return nil
}

func routingKey(rec cbus.Traffic, o cbus.PublishOptions) string {
	if o.TopicOverride != "" {
		return o.TopicOverride
	}

	return rec.Topic()
}

func (a *Adapter) headers(ctx context.Context, rec cbus.Traffic, o cbus.PublishOptions) map[string]string {
	// copy headers to avoid mutating caller-provided map
	h := make(map[string]string, len(o.Headers)+4)
	for k, v := range o.Headers {
		h[k] = v
	}

	h["seq"] = strconv.FormatUint(rec.Seq, 10)
	h["type"] = rec.Type

	if o.Key != "" {
		h["key"] = o.Key
	}

	if a.Propagator != nil {
		a.Propagator.Inject(ctx, h)
	}

	return h
}
