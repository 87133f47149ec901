package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	cbus "github.com/next-trace/scg-mics/contract/bus"
	berr "github.com/next-trace/scg-mics/contract/errors"
)

// Client is a minimal NATS-like publisher interface decoupled from any concrete library.
// Users can provide a wrapper around their NATS connection to satisfy this.
type Client interface {
	// Publish publishes a message to a subject with optional headers.
	Publish(subject string, data []byte, headers map[string]string) error
}

// Adapter implements cbus.Adapter using an injected NATS-like Client.
type Adapter struct {
	Client Client
	// SubjectPrefix is prepended to the record's default subject; ignored with TopicOverride.
	SubjectPrefix string
}

// Ensure Adapter implements the combined contract.
var _ cbus.Adapter = (*Adapter)(nil)

// New creates a new NATS adapter instance with the provided client.
func New(c Client) *Adapter { return &Adapter{Client: c} }

func (a *Adapter) PublishTraffic(ctx context.Context, rec cbus.Traffic, opts cbus.PublishOptions) error {
	if err := a.ready(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("nats publish serialize: %w", errors.Join(berr.ErrSerializationFailed, err))
	}

	return a.publish(a.subject(rec, opts), body, publishHeaders(rec, opts))
}

func (a *Adapter) publish(subject string, body []byte, headers map[string]string) error {
	if err := a.Client.Publish(subject, body, headers); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("nats publish %s: %w", subject, errors.Join(berr.ErrPublishFailed, err))
	}

	return nil
}

func (a *Adapter) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Client == nil {
		return fmt.Errorf("nats publish: %w", berr.ErrTapNotConfigured)
	}

	return nil
}

// helpers

func (a *Adapter) subject(rec cbus.Traffic, o cbus.PublishOptions) string {
	if o.TopicOverride != "" {
		return o.TopicOverride
	}

	return a.SubjectPrefix + rec.Topic()
}

func publishHeaders(rec cbus.Traffic, o cbus.PublishOptions) map[string]string {
	h := make(map[string]string, len(o.Headers)+3)
	for k, v := range o.Headers {
		h[k] = v
	}

	h["seq"] = strconv.FormatUint(rec.Seq, 10)
	h["kind"] = string(rec.Kind)

	if o.Key != "" {
		h["key"] = o.Key
	}

	return h
}
