// Package microservice runs actors on top of a messagebus.Bus.
//
// A MicroService owns one goroutine (the one calling Run), one mailbox and a
// handler table keyed by concrete message type. Handlers are bound from the
// Initializer or from other handlers:
//
//	svc := microservice.New("camera-1", bus, func(ctx context.Context, m *microservice.MicroService) error {
//		microservice.SubscribeBroadcast(m, func(ctx context.Context, t slam.TickBroadcast) error {
//			return nil
//		})
//		return nil
//	})
//	go svc.Run(ctx)
//	<-svc.Ready()
//
// Handlers run one at a time in mailbox order. A panicking or failing event
// handler fails the event's promise with ErrHandlerFailed; the actor keeps running.
package microservice
