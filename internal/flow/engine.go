// Package flow spawns particles onto routes, moves them every tick and
// counts them when they arrive.
package flow

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"math"

	perlin "github.com/aquilax/go-perlin"

	"github.com/olivierh59500/sankey-flow-go/internal/geometry"
	"github.com/olivierh59500/sankey-flow-go/internal/hierarchy"
	"github.com/olivierh59500/sankey-flow-go/internal/sampler"
)

// Random supplies uniform draws in [0,1). *rand.Rand satisfies it.
type Random interface {
	Float64() float64
}

// Config holds the particle parameters.
type Config struct {
	Density        float64 // up to this many new particles per tick
	ParticleSize   float64 // nominal diameter
	MinDiameter    float64 // diameter floor while squeezing at the end of a route
	SpeedMin       float64
	SpeedMax       float64
	BandHeight     float64
	TotalParticles int     // cap on live plus arrived particles
	Wobble         float64 // vertical noise amplitude, 0 disables
	WobbleSeed     int64
	Colors         map[string]color.RGBA
}

// DefaultColor is used for groups without a configured colour.
var DefaultColor = color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}

// Perlin parameters for the wobble noise.
const (
	noiseAlpha  = 2.0
	noiseBeta   = 2.0
	noiseOctave = 3
	noiseScale  = 0.02
	noiseStride = 0.618 // keeps serials off the integer lattice where noise is zero
)

// Engine applies the tick rules to a State. It holds only read-only
// collaborators, so one engine can drive any number of states.
type Engine struct {
	cfg     Config
	sampler *sampler.Sampler
	cache   *geometry.Cache
	noise   *perlin.Perlin
	logger  *slog.Logger
}

// NewEngine checks cfg and wires the sampler and geometry cache.
func NewEngine(cfg Config, s *sampler.Sampler, cache *geometry.Cache, logger *slog.Logger) (*Engine, error) {
	if s == nil || cache == nil {
		return nil, fmt.Errorf("flow: sampler and geometry cache are required")
	}
	if cfg.Density < 0 {
		return nil, fmt.Errorf("flow: density must not be negative, got %g", cfg.Density)
	}
	if cfg.SpeedMin <= 0 || cfg.SpeedMax < cfg.SpeedMin {
		return nil, fmt.Errorf("flow: speed range [%g, %g] is invalid", cfg.SpeedMin, cfg.SpeedMax)
	}
	if cfg.TotalParticles <= 0 {
		return nil, fmt.Errorf("flow: total particles must be positive, got %d", cfg.TotalParticles)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	e := &Engine{
		cfg:     cfg,
		sampler: s,
		cache:   cache,
		logger:  logger,
	}
	if cfg.Wobble > 0 {
		e.noise = perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctave, cfg.WobbleSeed)
	}
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Targets returns the sampler's targets in threshold order.
func (e *Engine) Targets() []hierarchy.Target {
	return e.sampler.Targets()
}

// TickReport summarises one tick.
type TickReport struct {
	Tick    int
	Spawned int
	Arrived int
	Dropped int
	Live    int
}

// Spawn creates one particle at tick t. It draws the target, the speed and
// the offset from rng, in that order.
func (e *Engine) Spawn(state *State, t, seq int, rng Random) (Particle, error) {
	target := e.sampler.Sample(rng.Float64())
	id := fmt.Sprintf("%d_%d", t, seq)

	route, ok := e.cache.Get(target.Path)
	if !ok {
		return Particle{}, &UnknownRouteError{Path: target.Path, Particle: id}
	}

	speed := e.cfg.SpeedMin + rng.Float64()*(e.cfg.SpeedMax-e.cfg.SpeedMin)
	offset := -e.cfg.BandHeight/2 - e.cfg.ParticleSize/2 + rng.Float64()*e.cfg.BandHeight

	state.Serial++
	p := Particle{
		ID:          id,
		Serial:      state.Serial,
		Speed:       speed,
		Group:       target.Group,
		Color:       e.colorFor(target.Group),
		Offset:      offset,
		CreatedAt:   t,
		RouteLength: route.Len(),
		Target:      target,
	}
	state.Particles = append(state.Particles, p)
	return p, nil
}

// Tick advances state to tick t: spawn up to Density particles while the cap
// allows, move every particle to (t - createdAt) * speed, then retire and
// count the arrived ones. Particles whose route is unknown are dropped and
// reported in the returned error; the tick itself always completes.
func (e *Engine) Tick(state *State, t int, rng Random) (TickReport, error) {
	var errs []error
	report := TickReport{Tick: t}
	state.Tick = t
	if state.Arrivals == nil {
		state.Arrivals = make(ArrivalTally)
	}

	n := int(math.Round(rng.Float64() * e.cfg.Density))
	for seq := 0; seq < n && state.Live()+state.Arrived < e.cfg.TotalParticles; seq++ {
		if _, err := e.Spawn(state, t, seq, rng); err != nil {
			errs = append(errs, err)
			report.Dropped++
			e.logger.Warn("particle dropped", "tick", t, "error", err)
			continue
		}
		report.Spawned++
	}

	live := state.Particles[:0]
	for _, p := range state.Particles {
		if _, ok := e.cache.Get(p.Target.Path); !ok {
			err := &UnknownRouteError{Path: p.Target.Path, Particle: p.ID}
			errs = append(errs, err)
			report.Dropped++
			e.logger.Warn("particle dropped", "tick", t, "error", err)
			continue
		}

		p.Position = float64(t-p.CreatedAt) * p.Speed
		if p.Arrived() {
			state.Arrivals[TallyKey{Leaf: p.Target.Path, Group: p.Group}]++
			state.Arrived++
			report.Arrived++
			continue
		}
		live = append(live, p)
	}
	// release retired particles held past the new length
	clear(state.Particles[len(live):])
	state.Particles = live

	state.Dropped += report.Dropped
	report.Live = state.Live()
	return report, errors.Join(errs...)
}

// Restart discards every particle and arrival and rewinds to tick 0.
func (e *Engine) Restart(state *State) {
	state.Reset()
}

// Counter returns the arrival view of state.
func (e *Engine) Counter(state *State) ArrivalCounter {
	return ArrivalCounter{
		tally:    state.Arrivals,
		targets:  e.sampler.Targets(),
		capacity: e.cfg.TotalParticles,
	}
}

func (e *Engine) colorFor(group string) color.RGBA {
	if c, ok := e.cfg.Colors[group]; ok {
		return c
	}
	return DefaultColor
}
