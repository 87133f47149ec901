package services

import (
	"context"

	"github.com/next-trace/scg-mics/internal/slam"
	"github.com/next-trace/scg-mics/messagebus"
	"github.com/next-trace/scg-mics/microservice"
)

// PoseServiceName is the name of the GPS/IMU actor.
const PoseServiceName = "PoseService"

// NewPoseService returns the actor that sends the robot's pose on every tick.
func NewPoseService(b *messagebus.Bus, gps *slam.GPSIMU, opts ...microservice.Option) *microservice.MicroService {
	l := &lifecycle{kind: slam.KindPose}

	setup := func(_ context.Context, m *microservice.MicroService) error {
		l.m = m

		stopOnCrash(m, func() { gps.Status = slam.StatusDown })

		microservice.SubscribeBroadcast(m, func(_ context.Context, t slam.TerminatedBroadcast) error {
			if t.Kind == slam.KindTime {
				gps.Status = slam.StatusDown
				l.finish()
			}

			return nil
		})

		microservice.SubscribeBroadcast(m, func(_ context.Context, t slam.TickBroadcast) error {
			if p, ok := gps.PoseAt(t.Tick); ok {
				microservice.SendEvent(m, &slam.PoseEvent{Pose: p})
			}

			if gps.Exhausted(t.Tick) {
				gps.Status = slam.StatusDown
				l.finish()
			}

			return nil
		})

		return nil
	}

	return microservice.New(PoseServiceName, b, setup, opts...)
}
