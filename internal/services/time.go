package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/next-trace/scg-mics/internal/slam"
	"github.com/next-trace/scg-mics/messagebus"
	"github.com/next-trace/scg-mics/microservice"
)

// TimeServiceName is the name of the clock actor.
const TimeServiceName = "TimeService"

// TimeConfig drives the simulated clock.
type TimeConfig struct {
	// TickTime is the wall time between ticks.
	TickTime time.Duration
	// Duration is the number of ticks in a run.
	Duration int
	// Clock defaults to the real clock.
	Clock clock.Clock
}

// NewTimeService returns the actor broadcasting TickBroadcast 1..Duration.
// It stops early when FusionSLAM finishes or a sensor crashes.
func NewTimeService(b *messagebus.Bus, cfg TimeConfig, env Env, opts ...microservice.Option) *microservice.MicroService {
	env = env.withDefaults()
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}

	l := &lifecycle{kind: slam.KindTime}

	setup := func(ctx context.Context, m *microservice.MicroService) error {
		l.m = m

		stopOnCrash(m, nil)
		microservice.SubscribeBroadcast(m, func(_ context.Context, t slam.TerminatedBroadcast) error {
			if t.Kind == slam.KindFusion {
				l.finish()
			}

			return nil
		})

		ticker := cfg.Clock.Ticker(cfg.TickTime)

		go func() {
			defer ticker.Stop()

			for tick := 1; tick <= cfg.Duration; tick++ {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}

				env.Stats.AddRuntime(1)
				m.SendBroadcast(slam.TickBroadcast{Tick: tick})
				m.Logger().Debug("tick", slog.Int("tick", tick))
			}

			l.finish()
		}()

		return nil
	}

	return microservice.New(TimeServiceName, b, setup, opts...)
}
