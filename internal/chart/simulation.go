package chart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/olivierh59500/sankey-flow-go/internal/config"
	"github.com/olivierh59500/sankey-flow-go/internal/flow"
	"github.com/olivierh59500/sankey-flow-go/internal/hierarchy"
	"github.com/olivierh59500/sankey-flow-go/internal/metrics"
)

// Simulation owns one run: the state, the random source, the tick counter
// and the surface frames go to. It is driven from a single goroutine.
type Simulation struct {
	chart   *Chart
	root    *hierarchy.Internal
	state   *flow.State
	rng     *rand.Rand
	seed    int64
	elapsed int
	runID   string

	base    *slog.Logger
	logger  *slog.Logger // base with run_id
	metrics *metrics.Registry
	surface flow.Surface
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulation) { s.base = l }
}

// WithMetrics records every tick and restart in r.
func WithMetrics(r *metrics.Registry) Option {
	return func(s *Simulation) { s.metrics = r }
}

// WithSurface sends a frame to surface after every step.
func WithSurface(surface flow.Surface) Option {
	return func(s *Simulation) { s.surface = surface }
}

// WithSeed fixes the random source. Without it the configured seed is used,
// or the clock when that is zero.
func WithSeed(seed int64) Option {
	return func(s *Simulation) { s.seed = seed }
}

// NewSimulation builds the chart for root and prepares a run at tick 0.
func NewSimulation(root *hierarchy.Internal, cfg *config.Config, opts ...Option) (*Simulation, error) {
	s := &Simulation{
		root:    root,
		state:   flow.NewState(),
		surface: flow.Discard,
		seed:    cfg.Particles.Seed,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.base == nil {
		s.base = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s.logger = s.base
	if s.seed == 0 {
		s.seed = time.Now().UnixNano()
	}
	s.rng = rand.New(rand.NewSource(s.seed))

	c, err := Build(root, cfg, s.base)
	if err != nil {
		return nil, err
	}
	s.chart = c
	s.newRun()
	return s, nil
}

func (s *Simulation) newRun() {
	s.runID = uuid.New().String()
	s.logger = s.base.With("run_id", s.runID)
	if s.metrics != nil {
		s.metrics.SetRoutes(s.chart.Cache.Len())
	}
	s.logger.Info("run started",
		"seed", s.seed,
		"routes", s.chart.Cache.Len(),
		"cap", s.chart.Engine.Config().TotalParticles,
	)
}

// Step runs one tick at the current elapsed count, advances the count and
// hands the frame to the surface. Unknown-route errors of the tick are
// returned after the frame has been delivered.
func (s *Simulation) Step() (flow.TickReport, error) {
	start := time.Now()
	report, tickErr := s.chart.Engine.Tick(s.state, s.elapsed, s.rng)
	if s.metrics != nil {
		s.metrics.RecordTick(report, time.Since(start))
		if report.Arrived > 0 {
			s.metrics.RecordArrivals(s.Counter().Snapshot())
		}
	}
	if tickErr != nil {
		s.logger.Warn("tick dropped particles", "tick", s.elapsed, "dropped", report.Dropped)
	}
	s.elapsed++

	if err := s.surface.Render(s.frame(report)); err != nil {
		return report, errors.Join(tickErr, fmt.Errorf("render tick %d: %w", report.Tick, err))
	}
	return report, tickErr
}

// RunFor steps n times, or until ctx is done.
func (s *Simulation) RunFor(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := s.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Restart drops every particle and arrival and starts a new run at tick 0.
func (s *Simulation) Restart() {
	s.chart.Engine.Restart(s.state)
	s.elapsed = 0
	if s.metrics != nil {
		s.metrics.RecordRestart()
	}
	s.newRun()
}

// Rebuild lays the chart out again with cfg and restarts. On error the
// current chart and run are kept.
func (s *Simulation) Rebuild(cfg *config.Config) error {
	c, err := Build(s.root, cfg, s.base)
	if err != nil {
		return err
	}
	s.chart = c
	s.Restart()
	return nil
}

// SetSurface replaces the surface frames go to.
func (s *Simulation) SetSurface(surface flow.Surface) {
	if surface == nil {
		surface = flow.Discard
	}
	s.surface = surface
}

// Frame returns the current render view without stepping.
func (s *Simulation) Frame() flow.Frame {
	return s.frame(flow.TickReport{Tick: s.state.Tick, Live: s.state.Live()})
}

func (s *Simulation) frame(report flow.TickReport) flow.Frame {
	return flow.Frame{
		RunID:     s.runID,
		Tick:      report.Tick,
		Report:    report,
		Particles: s.chart.Engine.Render(s.state),
		Arrivals:  s.Counter(),
	}
}

// Counter returns the arrival view of the current run.
func (s *Simulation) Counter() flow.ArrivalCounter {
	return s.chart.Engine.Counter(s.state)
}

// Chart returns the built pipeline.
func (s *Simulation) Chart() *Chart {
	return s.chart
}

// State returns the live state. Callers must not mutate it.
func (s *Simulation) State() *flow.State {
	return s.state
}

// Elapsed is the tick the next Step will run.
func (s *Simulation) Elapsed() int {
	return s.elapsed
}

// RunID identifies the current run; it changes on restart.
func (s *Simulation) RunID() string {
	return s.runID
}

// Seed is the seed of the random source.
func (s *Simulation) Seed() int64 {
	return s.seed
}
