package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/next-trace/scg-mics/internal/slam"
	"github.com/next-trace/scg-mics/microservice"
)

// Env is the state shared by all services of one run.
type Env struct {
	Stats *slam.Statistics
	Crash *slam.CrashRegistry
}

func (e Env) withDefaults() Env {
	if e.Stats == nil {
		e.Stats = &slam.Statistics{}
	}

	if e.Crash == nil {
		e.Crash = slam.NewCrashRegistry()
	}

	return e
}

// lifecycle announces termination exactly once.
type lifecycle struct {
	m    *microservice.MicroService
	kind slam.Kind
	once sync.Once
}

func (l *lifecycle) finish() {
	l.once.Do(func() {
		l.m.Logger().Info("finished", slog.String("kind", l.kind.String()))
		l.m.SendBroadcast(slam.TerminatedBroadcast{Sender: l.m.Name(), Kind: l.kind})
		l.m.Terminate()
	})
}

// crash records c, tells every service and stops m.
func crash(m *microservice.MicroService, reg *slam.CrashRegistry, c slam.Crash) {
	if reg.Report(c) {
		m.Logger().Warn("sensor crashed", slog.String("sensor", c.FaultySensor), slog.String("err", c.Error))
	}

	m.SendBroadcast(slam.CrashedBroadcast{Error: c.Error, FaultySensor: c.FaultySensor, Sender: m.Name()})
	m.Terminate()
}

// stopOnCrash makes m stop when another service crashes.
func stopOnCrash(m *microservice.MicroService, onStop func()) {
	microservice.SubscribeBroadcast(m, func(_ context.Context, b slam.CrashedBroadcast) error {
		if b.Sender == m.Name() {
			return nil
		}

		if onStop != nil {
			onStop()
		}

		m.Logger().Info("stopping after crash", slog.String("sensor", b.FaultySensor))
		m.Terminate()

		return nil
	})
}
