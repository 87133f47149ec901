package bus

import "context"

// TrafficPublisher exports audit records of bus traffic to an external sink.
// Library users provide an implementation that maps to Kafka/NATS/RabbitMQ etc.
type TrafficPublisher interface {
	PublishTraffic(ctx context.Context, rec Traffic, opts PublishOptions) error
}
