// Package chart assembles the pipeline from a hierarchy and a configuration
// and drives it one tick at a time.
package chart

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/olivierh59500/sankey-flow-go/internal/config"
	"github.com/olivierh59500/sankey-flow-go/internal/flow"
	"github.com/olivierh59500/sankey-flow-go/internal/geometry"
	"github.com/olivierh59500/sankey-flow-go/internal/hierarchy"
	"github.com/olivierh59500/sankey-flow-go/internal/layout"
	"github.com/olivierh59500/sankey-flow-go/internal/sampler"
)

// Chart is one built pipeline. Everything in it is read-only once Build
// returns.
type Chart struct {
	Config     *config.Config
	Extraction *hierarchy.Extraction
	Network    *layout.Network
	Cache      *geometry.Cache
	Sampler    *sampler.Sampler
	Engine     *flow.Engine
}

// Build extracts, lays out, samples and wires the engine.
func Build(root *hierarchy.Internal, cfg *config.Config, logger *slog.Logger) (*Chart, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	x, err := hierarchy.Extract(root, cfg.Layout.RootName, cfg.HierarchyGroups())
	if err != nil {
		return nil, err
	}
	targets, err := x.Normalized()
	if err != nil {
		return nil, err
	}

	lc, err := cfg.LayoutParams()
	if err != nil {
		return nil, err
	}
	net, err := layout.Compute(x.Nodes, x.Edges, lc)
	if err != nil {
		return nil, err
	}

	cache, err := geometry.Build(net.Routes())
	if err != nil {
		return nil, fmt.Errorf("route geometry: %w", err)
	}

	s, err := sampler.New(targets)
	if err != nil {
		return nil, err
	}

	fc, err := cfg.FlowParams(x.TotalWeight())
	if err != nil {
		return nil, err
	}
	engine, err := flow.NewEngine(fc, s, cache, logger)
	if err != nil {
		return nil, err
	}

	logger.Debug("chart built",
		"nodes", len(x.Nodes),
		"columns", len(net.Columns()),
		"routes", cache.Len(),
		"targets", len(targets),
		"cap", fc.TotalParticles,
	)

	return &Chart{
		Config:     cfg,
		Extraction: x,
		Network:    net,
		Cache:      cache,
		Sampler:    s,
		Engine:     engine,
	}, nil
}

// Load reads the hierarchy document at path and builds a chart from it.
func Load(path string, cfg *config.Config, logger *slog.Logger) (*Chart, *hierarchy.Internal, error) {
	root, err := hierarchy.Load(path, cfg.HierarchyGroups())
	if err != nil {
		return nil, nil, err
	}
	c, err := Build(root, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return c, root, nil
}
