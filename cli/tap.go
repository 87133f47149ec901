package cli

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/next-trace/scg-mics/adapters/kafka"
	"github.com/next-trace/scg-mics/adapters/nats"
	"github.com/next-trace/scg-mics/adapters/rabbitmq"
	cbus "github.com/next-trace/scg-mics/contract/bus"
	berr "github.com/next-trace/scg-mics/contract/errors"
)

// tapConfig is a parsed --tap URL.
type tapConfig struct {
	scheme string
	nats   nats.Config
	kafka  kafka.Config
	amqp   rabbitmq.Config
}

// parseTap understands
//
//	nats://host:4222[?prefix=mics.]
//	kafka://broker1:9092[,broker2:9092][/topic]
//	amqp[s]://user:pass@host:5672/vhost[?exchange=name]
func parseTap(raw string) (tapConfig, error) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok || rest == "" {
		return tapConfig{}, fmt.Errorf("tap %q: want scheme://address: %w", raw, berr.ErrInvalidConfig)
	}

	tc := tapConfig{scheme: strings.ToLower(scheme)}

	switch tc.scheme {
	case "nats":
		u, err := url.Parse(raw)
		if err != nil {
			return tapConfig{}, fmt.Errorf("tap %q: %w", raw, berr.ErrInvalidConfig)
		}

		prefix := u.Query().Get("prefix")
		u.RawQuery = ""
		tc.nats = nats.Config{URL: u.String(), Name: "gurionrock", SubjectPrefix: prefix}
	case "kafka":
		brokers, topic, _ := strings.Cut(rest, "/")
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				tc.kafka.Brokers = append(tc.kafka.Brokers, b)
			}
		}

		if len(tc.kafka.Brokers) == 0 {
			return tapConfig{}, fmt.Errorf("tap %q: no brokers: %w", raw, berr.ErrInvalidConfig)
		}

		tc.kafka.Topic = topic
		tc.kafka.ClientID = "gurionrock"
	case "amqp", "amqps":
		u, err := url.Parse(raw)
		if err != nil {
			return tapConfig{}, fmt.Errorf("tap %q: %w", raw, berr.ErrInvalidConfig)
		}

		exchange := u.Query().Get("exchange")
		u.RawQuery = ""
		tc.amqp = rabbitmq.Config{URL: u.String(), Exchange: exchange}
	default:
		return tapConfig{}, fmt.Errorf("tap %q: unsupported scheme %q: %w", raw, scheme, berr.ErrInvalidConfig)
	}

	return tc, nil
}

// open connects the publisher. cleanup is safe to call when err != nil.
func (tc tapConfig) open() (cbus.TrafficPublisher, func(), error) {
	var (
		pub     cbus.TrafficPublisher
		cleanup func()
		err     error
	)

	switch tc.scheme {
	case "nats":
		pub, cleanup, err = nats.NewWithNATS(tc.nats)
	case "kafka":
		pub, cleanup, err = kafka.NewWithKgo(tc.kafka)
	default:
		pub, cleanup, err = rabbitmq.NewWithAMQPConn(tc.amqp)
	}

	if cleanup == nil {
		cleanup = func() {}
	}

	return pub, cleanup, err
}
