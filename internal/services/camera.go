package services

import (
	"context"
	"log/slog"

	"github.com/next-trace/scg-mics/internal/slam"
	"github.com/next-trace/scg-mics/messagebus"
	"github.com/next-trace/scg-mics/microservice"
)

// NewCameraService returns the actor that publishes cam's frames as they
// become due. A frame holding an ERROR object crashes the run.
func NewCameraService(b *messagebus.Bus, cam *slam.Camera, env Env, opts ...microservice.Option) *microservice.MicroService {
	env = env.withDefaults()
	l := &lifecycle{kind: slam.KindCamera}

	setup := func(_ context.Context, m *microservice.MicroService) error {
		l.m = m

		stopOnCrash(m, func() { cam.Status = slam.StatusDown })

		microservice.SubscribeBroadcast(m, func(_ context.Context, t slam.TerminatedBroadcast) error {
			if t.Kind == slam.KindTime {
				cam.Status = slam.StatusDown
				l.finish()
			}

			return nil
		})

		microservice.SubscribeBroadcast(m, func(_ context.Context, t slam.TickBroadcast) error {
			for _, f := range cam.FramesDueAt(t.Tick) {
				if o, bad := f.Fault(); bad {
					cam.Status = slam.StatusError
					crash(m, env.Crash, slam.Crash{Error: o.Description, FaultySensor: cam.Name()})

					return nil
				}

				env.Crash.RecordCameraFrame(cam.Name(), f)
				env.Stats.AddDetected(len(f.DetectedObjects))

				if _, ok := microservice.SendEvent(m, &slam.DetectObjectsEvent{Camera: cam.Name(), Frame: f}); !ok {
					m.Logger().Warn("no lidar worker for frame", slog.Int("time", f.Time))
				}
			}

			if cam.Exhausted(t.Tick) {
				cam.Status = slam.StatusDown
				l.finish()
			}

			return nil
		})

		return nil
	}

	return microservice.New(cam.Name(), b, setup, opts...)
}
