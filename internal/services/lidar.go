package services

import (
	"context"
	"log/slog"

	berr "github.com/next-trace/scg-mics/contract/errors"
	"github.com/next-trace/scg-mics/internal/slam"
	"github.com/next-trace/scg-mics/messagebus"
	"github.com/next-trace/scg-mics/microservice"
)

type lidarService struct {
	m       *microservice.MicroService
	worker  *slam.LiDarWorkerTracker
	db      *slam.LiDarDataBase
	env     Env
	cameras int
	life    lifecycle

	tick        int
	camerasDone int
	queue       []*slam.DetectObjectsEvent
}

// NewLiDarService returns the actor that turns camera frames into tracked
// objects once the worker's frequency has elapsed. It finishes when all
// cameras have finished and nothing is queued. cameras is the number of
// camera services in the run.
func NewLiDarService(b *messagebus.Bus, w *slam.LiDarWorkerTracker, db *slam.LiDarDataBase, cameras int, env Env, opts ...microservice.Option) *microservice.MicroService {
	s := &lidarService{worker: w, db: db, env: env.withDefaults(), cameras: cameras}
	s.life.kind = slam.KindLiDar

	return microservice.New(w.Name(), b, s.setup, opts...)
}

func (s *lidarService) setup(_ context.Context, m *microservice.MicroService) error {
	s.m = m
	s.life.m = m

	stopOnCrash(m, func() {
		s.worker.Status = slam.StatusDown
		s.drop()
	})

	microservice.SubscribeEventDeferred(m, func(_ context.Context, e *slam.DetectObjectsEvent) error {
		s.queue = append(s.queue, e)
		s.process()

		return nil
	})

	microservice.SubscribeBroadcast(m, func(_ context.Context, t slam.TickBroadcast) error {
		s.tick = t.Tick

		if s.db.FaultAt(t.Tick) {
			s.worker.Status = slam.StatusError
			s.drop()
			crash(m, s.env.Crash, slam.Crash{Error: "LiDar disconnected", FaultySensor: s.worker.Name()})

			return nil
		}

		s.process()
		s.maybeFinish()

		return nil
	})

	microservice.SubscribeBroadcast(m, func(_ context.Context, t slam.TerminatedBroadcast) error {
		switch t.Kind {
		case slam.KindCamera:
			s.camerasDone++
			s.maybeFinish()
		case slam.KindTime:
			s.drop()
			s.worker.Status = slam.StatusDown
			s.life.finish()
		}

		return nil
	})

	return nil
}

// process tracks every queued frame that is due at the current tick.
func (s *lidarService) process() {
	kept := s.queue[:0]

	for _, e := range s.queue {
		if s.tick < e.Frame.Time+s.worker.Frequency {
			kept = append(kept, e)
			continue
		}

		tracked := s.worker.Track(s.db, e.Frame)
		s.env.Stats.AddTracked(len(tracked))
		s.env.Crash.RecordLiDarFrame(s.worker.Name(), tracked)

		if len(tracked) > 0 {
			microservice.SendEvent(s.m, &slam.TrackedObjectsEvent{Worker: s.worker.Name(), Objects: tracked})
		}

		microservice.Complete(s.m, e, true)
	}

	clear(s.queue[len(kept):])
	s.queue = kept
}

// drop fails frames that will never be tracked.
func (s *lidarService) drop() {
	for _, e := range s.queue {
		s.m.Fail(e, berr.ErrActorUnregistered)
	}

	if n := len(s.queue); n > 0 {
		s.m.Logger().Debug("dropped queued frames", slog.Int("count", n))
	}

	s.queue = nil
}

func (s *lidarService) maybeFinish() {
	if s.camerasDone >= s.cameras && len(s.queue) == 0 {
		s.worker.Status = slam.StatusDown
		s.life.finish()
	}
}
