package bus

// Adapter is implemented by every transport in adapters/. It is kept as a
// separate name so transports can grow capabilities without touching the bus.
type Adapter interface {
	TrafficPublisher
}
