// Package config loads the TOML configuration and turns it into the
// layout and flow parameters.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/olivierh59500/sankey-flow-go/internal/flow"
	"github.com/olivierh59500/sankey-flow-go/internal/hierarchy"
	"github.com/olivierh59500/sankey-flow-go/internal/layout"
)

var validate = validator.New()

// Config holds sankeyflow configuration.
type Config struct {
	Data      string          `toml:"data"`
	Canvas    CanvasConfig    `toml:"canvas"`
	Layout    LayoutConfig    `toml:"layout"`
	Particles ParticlesConfig `toml:"particles"`
	Groups    []GroupConfig   `toml:"groups" validate:"len=2,dive"`
	Window    WindowConfig    `toml:"window"`
}

// CanvasConfig is the drawing area in pixels.
type CanvasConfig struct {
	Width  float64      `toml:"width" validate:"gt=0"`
	Height float64      `toml:"height" validate:"gt=0"`
	Margin MarginConfig `toml:"margin"`
}

// MarginConfig keeps space free around the network.
type MarginConfig struct {
	Top    float64 `toml:"top" validate:"gte=0"`
	Right  float64 `toml:"right" validate:"gte=0"`
	Bottom float64 `toml:"bottom" validate:"gte=0"`
	Left   float64 `toml:"left" validate:"gte=0"`
}

// LayoutConfig controls node placement.
type LayoutConfig struct {
	Curvature   float64 `toml:"curvature" validate:"gte=0,lte=1"` // 0 smooth, 1 square
	NodePadding float64 `toml:"node_padding" validate:"gte=0"`
	BandHeight  float64 `toml:"band_height" validate:"gt=0"`
	Align       string  `toml:"align" validate:"oneof=depth justify"`
	RootName    string  `toml:"root_name" validate:"required,excludesall=/"`
}

// ParticlesConfig controls spawning and drawing of particles.
type ParticlesConfig struct {
	Size        float64 `toml:"size" validate:"gt=0"`
	MinDiameter float64 `toml:"min_diameter" validate:"gte=0"`
	Speed       float64 `toml:"speed" validate:"gt=0"`
	SpeedSpread float64 `toml:"speed_spread" validate:"gte=0"`
	Density     float64 `toml:"density" validate:"gte=0"`
	Total       int     `toml:"total" validate:"gte=0"` // 0 means the sum of all weights
	Wobble      float64 `toml:"wobble" validate:"gte=0"`
	Seed        int64   `toml:"seed"` // 0 picks a time-based seed
}

// GroupConfig names one of the two weight fields of a leaf.
type GroupConfig struct {
	Key   string `toml:"key" validate:"required,excludesall=/"`
	Label string `toml:"label"`
	Color string `toml:"color" validate:"required,hexcolor"`
}

// WindowConfig controls the graphical surface.
type WindowConfig struct {
	Title     string  `toml:"title"`
	TPS       int     `toml:"tps" validate:"gt=0,lte=240"`
	Scale     float64 `toml:"scale" validate:"gt=0"`
	ShowBands bool    `toml:"show_bands"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Canvas: CanvasConfig{
			Width:  1500,
			Height: 330,
			Margin: MarginConfig{Top: 10, Right: 130, Bottom: 10, Left: 10},
		},
		Layout: LayoutConfig{
			Curvature:   0.7,
			NodePadding: 45,
			BandHeight:  40,
			Align:       "depth",
			RootName:    hierarchy.DefaultRootName,
		},
		Particles: ParticlesConfig{
			Size:        8,
			MinDiameter: 2,
			Speed:       5,
			SpeedSpread: 0.5,
			Density:     4,
		},
		Groups: []GroupConfig{
			{Key: "vegan", Label: "vegan", Color: "#91A767"},
			{Key: "non-vegan", Label: "non-vegan", Color: "#e8754b"},
		},
		Window: WindowConfig{
			Title:     "Sankey Flow",
			TPS:       60,
			Scale:     1,
			ShowBands: true,
		},
	}
}

// Load reads a TOML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// groups replace the defaults rather than merging index by index
	var probe struct {
		Groups []GroupConfig `toml:"groups"`
	}
	if _, err := toml.Decode(string(data), &probe); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if len(probe.Groups) > 0 {
		cfg.Groups = nil
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Encode writes cfg as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Validate checks field ranges and the constraints between fields.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	if c.Groups[0].Key == c.Groups[1].Key {
		return fmt.Errorf("groups: keys must differ, both are %q", c.Groups[0].Key)
	}
	m := c.Canvas.Margin
	if m.Left+m.Right >= c.Canvas.Width {
		return fmt.Errorf("canvas: horizontal margins %g+%g leave no room in width %g", m.Left, m.Right, c.Canvas.Width)
	}
	if m.Top+m.Bottom >= c.Canvas.Height {
		return fmt.Errorf("canvas: vertical margins %g+%g leave no room in height %g", m.Top, m.Bottom, c.Canvas.Height)
	}
	if c.Particles.MinDiameter > c.Particles.Size {
		return fmt.Errorf("particles: min_diameter %g exceeds size %g", c.Particles.MinDiameter, c.Particles.Size)
	}
	return nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, e := range verrs {
		field := e.Namespace()
		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "gt", "gte", "lt", "lte":
			return fmt.Errorf("%s: must be %s %s, got %v", field, e.Tag(), e.Param(), e.Value())
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s], got %v", field, e.Param(), e.Value())
		case "len":
			return fmt.Errorf("%s: exactly %s entries required", field, e.Param())
		case "hexcolor":
			return fmt.Errorf("%s: %v is not a hex colour", field, e.Value())
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}
	return err
}

// HierarchyGroups returns the group keys in order.
func (c *Config) HierarchyGroups() hierarchy.Groups {
	return hierarchy.Groups{c.Groups[0].Key, c.Groups[1].Key}
}

// GroupLabel returns the display label of a group key.
func (c *Config) GroupLabel(key string) string {
	for _, g := range c.Groups {
		if g.Key == key && g.Label != "" {
			return g.Label
		}
	}
	return key
}

// LayoutParams converts the canvas and layout sections.
func (c *Config) LayoutParams() (layout.Config, error) {
	align, err := layout.ParseAlign(c.Layout.Align)
	if err != nil {
		return layout.Config{}, err
	}
	m := c.Canvas.Margin
	return layout.Config{
		Width:       c.Canvas.Width,
		Height:      c.Canvas.Height,
		Margin:      layout.Margin{Top: m.Top, Right: m.Right, Bottom: m.Bottom, Left: m.Left},
		Curvature:   c.Layout.Curvature,
		NodePadding: c.Layout.NodePadding,
		BandHeight:  c.Layout.BandHeight,
		Align:       align,
	}, nil
}

// FlowParams converts the particle and group sections. totalWeight is the
// sum of raw leaf weights and sets the particle cap when none is configured.
func (c *Config) FlowParams(totalWeight float64) (flow.Config, error) {
	colors := make(map[string]color.RGBA, len(c.Groups))
	for _, g := range c.Groups {
		rgba, err := ParseColor(g.Color)
		if err != nil {
			return flow.Config{}, fmt.Errorf("group %s: %w", g.Key, err)
		}
		colors[g.Key] = rgba
	}

	total := c.Particles.Total
	if total == 0 {
		total = int(math.Ceil(totalWeight))
	}

	return flow.Config{
		Density:        c.Particles.Density,
		ParticleSize:   c.Particles.Size,
		MinDiameter:    c.Particles.MinDiameter,
		SpeedMin:       c.Particles.Speed,
		SpeedMax:       c.Particles.Speed + c.Particles.SpeedSpread,
		BandHeight:     c.Layout.BandHeight,
		TotalParticles: total,
		Wobble:         c.Particles.Wobble,
		WobbleSeed:     c.Particles.Seed,
		Colors:         colors,
	}, nil
}

// ParseColor reads #rgb or #rrggbb into an opaque colour.
func ParseColor(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("parse colour %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}
