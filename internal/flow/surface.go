package flow

// Frame is what the engine hands a surface after each tick.
type Frame struct {
	RunID     string
	Tick      int
	Report    TickReport
	Particles []ParticleView
	Arrivals  ArrivalCounter
}

// Surface draws frames. The engine never draws anything itself.
type Surface interface {
	Render(Frame) error
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func(Frame) error

// Render calls f.
func (f SurfaceFunc) Render(fr Frame) error {
	return f(fr)
}

// Discard is a Surface that ignores every frame.
var Discard Surface = SurfaceFunc(func(Frame) error { return nil })
