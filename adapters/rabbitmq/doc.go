/*
Package rabbitmq exports bus traffic records to RabbitMQ.
Records are published to a topic exchange keyed by their traffic subject.
It includes an auto-reconnect publisher and supports optional header
propagation via a bus.HeaderPropagator.
*/
package rabbitmq
