package tricanvas

// DefaultClear clears to transparent black and the farthest depth.
// It never varies with time.
var DefaultClear = ClearOptions{Color: Transparent, Depth: 1}

// DrawLoop produces one frame per call: one clear followed by one draw.
type DrawLoop struct {
	dev  Device
	prog Program
}

// NewDrawLoop returns a loop drawing prog on dev.
func NewDrawLoop(dev Device, prog Program) *DrawLoop {
	return &DrawLoop{dev: dev, prog: prog}
}

// Render clears the surface and draws the triangle colored for s.Time.
func (l *DrawLoop) Render(s FrameSample) error {
	if err := l.dev.Clear(DefaultClear); err != nil {
		return err
	}
	return l.prog.Draw(Uniforms{UniformColor: FrameColor(s.Time)})
}

// Func adapts Render to a FrameFunc. Errors are logged and the loop keeps
// running.
func (l *DrawLoop) Func() FrameFunc {
	return func(s FrameSample) {
		if err := l.Render(s); err != nil {
			Logger().Warn("tricanvas: frame failed", "tick", s.Tick, "time", s.Time, "err", err)
		}
	}
}
