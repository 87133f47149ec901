// Package simulation wires a GurionRock run: it loads the world, starts one
// actor per sensor plus FusionSLAM and the clock on a shared bus, and
// collects the report once every actor has stopped.
package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/next-trace/scg-mics/internal/config"
	"github.com/next-trace/scg-mics/internal/report"
	"github.com/next-trace/scg-mics/internal/services"
	"github.com/next-trace/scg-mics/internal/slam"
	"github.com/next-trace/scg-mics/messagebus"
	"github.com/next-trace/scg-mics/metrics"
	"github.com/next-trace/scg-mics/microservice"
)

// Option configures a Simulation.
type Option func(*Simulation)

// WithLogger sets the logger for the run and every actor.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces the real clock, typically with clock.NewMock.
func WithClock(c clock.Clock) Option {
	return func(s *Simulation) { s.clock = c }
}

// WithTickTime overrides the configured tick interval.
func WithTickTime(d time.Duration) Option {
	return func(s *Simulation) { s.tick = d }
}

// WithBusOptions passes options to the message bus, such as a traffic tap
// or bus metrics.
func WithBusOptions(opts ...messagebus.BusOption) Option {
	return func(s *Simulation) { s.busOpts = append(s.busOpts, opts...) }
}

// WithActorMetrics records actor metrics for every service.
func WithActorMetrics(am metrics.ActorMetrics) Option {
	return func(s *Simulation) { s.actorMetrics = am }
}

// Simulation is a single run.
type Simulation struct {
	id           string
	cfg          *config.Config
	logger       *slog.Logger
	clock        clock.Clock
	tick         time.Duration
	busOpts      []messagebus.BusOption
	actorMetrics metrics.ActorMetrics
}

// Result is the outcome of a run.
type Result struct {
	RunID  string
	Output report.Output
}

func New(cfg *config.Config, opts ...Option) *Simulation {
	s := &Simulation{
		id:     uuid.NewString(),
		cfg:    cfg,
		logger: slog.Default(),
		clock:  clock.New(),
		tick:   cfg.Tick(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With(slog.String("run", s.id))

	return s
}

// ID returns the run id.
func (s *Simulation) ID() string { return s.id }

// Run loads the world and runs it to completion. It returns an error when
// loading fails, an actor fails to start or ctx ends first.
func (s *Simulation) Run(ctx context.Context) (Result, error) {
	w, err := LoadWorld(s.cfg)
	if err != nil {
		return Result{}, fmt.Errorf("run %s: %w", s.id, err)
	}

	for _, key := range w.MissingCameraData {
		s.logger.Warn("no data for camera", slog.String("camera_key", key))
	}

	b := messagebus.New(append([]messagebus.BusOption{messagebus.WithLogger(s.logger)}, s.busOpts...)...)
	defer func() { _ = b.Close() }()

	env := services.Env{Stats: &slam.Statistics{}, Crash: slam.NewCrashRegistry()}
	fusion := slam.NewFusionSlam()
	opts := s.actorOptions()

	actors := []*microservice.MicroService{
		services.NewFusionSlamService(b, fusion, w.Sensors(), env, opts...),
		services.NewPoseService(b, w.GPS, opts...),
	}

	for _, cam := range w.Cameras {
		actors = append(actors, services.NewCameraService(b, cam, env, opts...))
	}

	for _, wk := range w.Workers {
		actors = append(actors, services.NewLiDarService(b, wk, w.LiDarDB, len(w.Cameras), env, opts...))
	}

	clk := services.NewTimeService(b, services.TimeConfig{
		TickTime: s.tick,
		Duration: s.cfg.Duration,
		Clock:    s.clock,
	}, env, opts...)

	s.logger.Info("simulation starting",
		slog.Int("cameras", len(w.Cameras)),
		slog.Int("lidar_workers", len(w.Workers)),
		slog.Int("duration", s.cfg.Duration),
		slog.Duration("tick", s.tick))

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)

	for _, a := range actors {
		g.Go(func() error { return a.Run(gctx) })
	}

	// the clock starts only once every other actor has subscribed
	g.Go(func() error {
		for _, a := range actors {
			select {
			case <-a.Ready():
			case <-gctx.Done():
				return nil
			}
		}

		return clk.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("run %s: %w", s.id, err)
	}

	out := report.Build(env.Stats, fusion, env.Crash)
	s.logger.Info("simulation finished",
		slog.Duration("took", time.Since(start)),
		slog.Int("runtime", out.SystemRuntime),
		slog.Int("landmarks", out.NumLandmarks),
		slog.Bool("crashed", out.Crashed()))

	return Result{RunID: s.id, Output: out}, nil
}

func (s *Simulation) actorOptions() []microservice.Option {
	opts := []microservice.Option{microservice.WithLogger(s.logger)}
	if s.actorMetrics != nil {
		opts = append(opts, microservice.WithMetrics(s.actorMetrics))
	}

	return opts
}
