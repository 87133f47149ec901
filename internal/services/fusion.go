package services

import (
	"context"
	"log/slog"

	"github.com/next-trace/scg-mics/internal/slam"
	"github.com/next-trace/scg-mics/messagebus"
	"github.com/next-trace/scg-mics/microservice"
)

// FusionSlamServiceName is the name of the mapping actor.
const FusionSlamServiceName = "FusionSlam"

type fusionService struct {
	fusion  *slam.FusionSlam
	env     Env
	sensors int
	life    lifecycle

	done   int
	parked []slam.TrackedObject
}

// NewFusionSlamService returns the actor that builds the landmark map.
// sensors is the number of camera, LiDAR and pose services; the actor
// finishes once that many have announced termination.
func NewFusionSlamService(b *messagebus.Bus, f *slam.FusionSlam, sensors int, env Env, opts ...microservice.Option) *microservice.MicroService {
	s := &fusionService{fusion: f, env: env.withDefaults(), sensors: sensors}
	s.life.kind = slam.KindFusion

	return microservice.New(FusionSlamServiceName, b, s.setup, opts...)
}

func (s *fusionService) setup(_ context.Context, m *microservice.MicroService) error {
	s.life.m = m

	stopOnCrash(m, nil)

	microservice.SubscribeEvent(m, func(_ context.Context, e *slam.PoseEvent) (bool, error) {
		s.fusion.AddPose(e.Pose)

		parked := s.parked
		s.parked = nil
		s.integrate(parked)

		return true, nil
	})

	microservice.SubscribeEvent(m, func(_ context.Context, e *slam.TrackedObjectsEvent) (bool, error) {
		s.integrate(e.Objects)
		return true, nil
	})

	microservice.SubscribeBroadcast(m, func(_ context.Context, t slam.TerminatedBroadcast) error {
		switch t.Kind {
		case slam.KindCamera, slam.KindLiDar, slam.KindPose:
			s.done++
			if s.done >= s.sensors {
				s.finish(m)
			}
		case slam.KindTime:
			s.finish(m)
		}

		return nil
	})

	return nil
}

// integrate places objs on the map. Objects whose pose has not arrived yet
// are parked until it does.
func (s *fusionService) integrate(objs []slam.TrackedObject) {
	for _, o := range objs {
		added, placed := s.fusion.Integrate(o)
		if !placed {
			s.parked = append(s.parked, o)
			continue
		}

		if added {
			s.env.Stats.AddLandmarks(1)
		}
	}
}

func (s *fusionService) finish(m *microservice.MicroService) {
	if n := len(s.parked); n > 0 {
		m.Logger().Warn("objects without pose were not mapped", slog.Int("count", n))
	}

	s.life.finish()
}
