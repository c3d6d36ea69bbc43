// Package window draws a running simulation with Ebitengine.
package window

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/olivierh59500/sankey-flow-go/internal/chart"
	"github.com/olivierh59500/sankey-flow-go/internal/config"
	"github.com/olivierh59500/sankey-flow-go/internal/flow"
	"github.com/olivierh59500/sankey-flow-go/internal/flow/trail"
)

const (
	MinZoom  = 0.25
	MaxZoom  = 8.0
	TrailLen = 12
)

var (
	background = color.RGBA{0x18, 0x18, 0x1c, 0xff}
	bandColor  = color.RGBA{0x80, 0x80, 0x88, 0x40}
	nodeColor  = color.RGBA{0xb0, 0xb0, 0xb8, 0xff}
)

// Visualisation modes, cycled with V.
const (
	ModeParticles = iota
	ModeTrails
	modeCount
)

// Game is the Ebitengine game. It is also the surface the simulation
// hands its frames to.
type Game struct {
	sim    *chart.Simulation
	cfg    *config.Config
	logger *slog.Logger

	frame  flow.Frame
	trails *trail.Buffer
	bands  *ebiten.Image
	built  *chart.Chart // chart the bands were drawn for

	Paused     bool
	ShowBands  bool
	VisMode    int
	Zoom       float64
	CamX, CamY float64
	PrevMX     float64
	PrevMY     float64
	SnapshotTo string
}

// New creates the game and registers it as the simulation's surface.
func New(sim *chart.Simulation, cfg *config.Config, logger *slog.Logger) *Game {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Game{
		sim:        sim,
		cfg:        cfg,
		logger:     logger,
		trails:     trail.NewBuffer(TrailLen),
		ShowBands:  cfg.Window.ShowBands,
		Zoom:       1,
		SnapshotTo: ".",
	}
	g.frame = sim.Frame()
	sim.SetSurface(g)
	return g
}

// Render keeps the latest frame for Draw and extends the trails.
func (g *Game) Render(f flow.Frame) error {
	if f.RunID != g.frame.RunID {
		g.trails.Reset()
	}
	g.frame = f
	g.trails.Push(f.Particles)
	return nil
}

// Update is called each tick by Ebitengine
func (g *Game) Update() error {
	if err := g.handleInput(); err != nil {
		return err
	}
	if g.Paused {
		return nil
	}

	if _, err := g.sim.Step(); err != nil {
		var unknown *flow.UnknownRouteError
		if !errors.As(err, &unknown) {
			return err
		}
		g.logger.Warn("particles dropped", "error", err)
	}
	return nil
}

// Draw is called each frame by Ebitengine
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(background)

	if g.ShowBands {
		g.drawBands(screen)
	}

	switch g.VisMode {
	case ModeParticles:
		for _, p := range g.frame.Particles {
			sx, sy := g.worldToScreenX(p.X), g.worldToScreenY(p.Y+p.Radius)
			vector.DrawFilledCircle(screen, float32(sx), float32(sy), float32(p.Radius*g.Zoom), p.Color, true)
		}
	case ModeTrails:
		g.trails.Each(func(pts []trail.Point, col color.RGBA) {
			for i := 1; i < len(pts); i++ {
				vector.StrokeLine(screen,
					float32(g.worldToScreenX(pts[i-1].X)), float32(g.worldToScreenY(pts[i-1].Y)),
					float32(g.worldToScreenX(pts[i].X)), float32(g.worldToScreenY(pts[i].Y)),
					float32(2*g.Zoom), col, true)
			}
		})
	}

	g.drawLabels(screen)

	status := fmt.Sprintf("tick %d  live %d  arrived %d/%d",
		g.frame.Tick, g.frame.Report.Live, g.frame.Arrivals.Total(),
		g.sim.Chart().Engine.Config().TotalParticles)
	if g.Paused {
		status += "  [paused]"
	}
	ebitenutil.DebugPrintAt(screen, status, 4, 4)
}

// Layout returns the canvas size
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return int(g.cfg.Canvas.Width), int(g.cfg.Canvas.Height)
}

// handleInput processes keyboard and mouse input
func (g *Game) handleInput() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.Paused = !g.Paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.sim.Restart()
		g.trails.Reset()
		g.frame = g.sim.Frame()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.ShowBands = !g.ShowBands
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyV) {
		g.VisMode = (g.VisMode + 1) % modeCount
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		if path, err := g.saveSnapshot(); err != nil {
			g.logger.Error("save snapshot", "error", err)
		} else {
			g.logger.Info("snapshot saved", "path", path)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.Key0) {
		g.Zoom, g.CamX, g.CamY = 1, 0, 0
	}

	// Zoom
	_, wheelY := ebiten.Wheel()
	g.Zoom += wheelY * 0.1
	g.Zoom = max(MinZoom, min(MaxZoom, g.Zoom))

	// Pan (drag)
	mx, my := ebiten.CursorPosition()
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		g.CamX -= (float64(mx) - g.PrevMX) / g.Zoom
		g.CamY -= (float64(my) - g.PrevMY) / g.Zoom
	}
	g.PrevMX = float64(mx)
	g.PrevMY = float64(my)
	return nil
}

// drawBands draws the routes and nodes once into an offscreen image and
// blits it through the camera every frame after that.
func (g *Game) drawBands(screen *ebiten.Image) {
	c := g.sim.Chart()
	if g.bands == nil || g.built != c {
		g.bands = ebiten.NewImage(int(g.cfg.Canvas.Width), int(g.cfg.Canvas.Height))
		band := float32(c.Network.Config.BandHeight)
		for _, key := range c.Cache.Keys() {
			route, _ := c.Cache.Get(key)
			for i := 1; i < route.Len(); i++ {
				a, b := route.Points[i-1], route.Points[i]
				vector.StrokeLine(g.bands, float32(a.X), float32(a.Y), float32(b.X), float32(b.Y), band, bandColor, false)
			}
		}
		for _, n := range c.Network.Nodes {
			vector.DrawFilledRect(g.bands, float32(n.X0), float32(n.Y0), float32(n.X1-n.X0), 2, nodeColor, false)
			vector.DrawFilledRect(g.bands, float32(n.X0), float32(n.Y1-2), float32(n.X1-n.X0), 2, nodeColor, false)
		}
		g.built = c
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(-g.CamX, -g.CamY)
	op.GeoM.Scale(g.Zoom, g.Zoom)
	screen.DrawImage(g.bands, op)
}

// drawLabels writes node names, and the per-group counts next to leaves.
func (g *Game) drawLabels(screen *ebiten.Image) {
	net := g.sim.Chart().Network
	groups := g.cfg.HierarchyGroups()
	for _, n := range net.Nodes {
		x, y := g.worldToScreenX(n.X0), g.worldToScreenY(n.Y0)-16
		if !n.Leaf {
			ebitenutil.DebugPrintAt(screen, n.Name, int(x), int(y))
			continue
		}
		label := fmt.Sprintf("%s\n%s %d  %s %d", n.Name,
			g.cfg.GroupLabel(groups[0]), g.frame.Arrivals.CountFor(n.Path, groups[0]),
			g.cfg.GroupLabel(groups[1]), g.frame.Arrivals.CountFor(n.Path, groups[1]))
		ebitenutil.DebugPrintAt(screen, label, int(g.worldToScreenX(n.X1)+6), int(g.worldToScreenY(n.Y0)))
	}
}

// saveSnapshot writes the arrival tally of the current run to JSON.
func (g *Game) saveSnapshot() (string, error) {
	doc := struct {
		RunID    string         `json:"run_id"`
		Tick     int            `json:"tick"`
		Arrivals []flow.Arrival `json:"arrivals"`
	}{g.frame.RunID, g.frame.Tick, g.frame.Arrivals.Snapshot()}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(g.SnapshotTo, fmt.Sprintf("arrivals-%s-%d.json", g.frame.RunID[:8], g.frame.Tick))
	return path, os.WriteFile(path, data, 0o644)
}

// worldToScreenX/Y for camera
func (g *Game) worldToScreenX(wx float64) float64 {
	return (wx - g.CamX) * g.Zoom
}
func (g *Game) worldToScreenY(wy float64) float64 {
	return (wy - g.CamY) * g.Zoom
}

// Run opens a window on sim and blocks until it is closed.
func Run(sim *chart.Simulation, cfg *config.Config, logger *slog.Logger) error {
	return RunGame(New(sim, cfg, logger), cfg)
}

// RunGame opens the window for g and blocks until it is closed.
func RunGame(g *Game, cfg *config.Config) error {
	ebiten.SetWindowSize(int(cfg.Canvas.Width*cfg.Window.Scale), int(cfg.Canvas.Height*cfg.Window.Scale))
	ebiten.SetWindowTitle(cfg.Window.Title)
	ebiten.SetTPS(cfg.Window.TPS)

	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
