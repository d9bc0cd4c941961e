// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package software

import (
	"errors"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/tricanvas"
)

// Stats counts operations issued on a Device.
type Stats struct {
	Frames uint64
	Clears uint64
	Draws  uint64
}

// Device renders into a gg.Context on the CPU.
//
// Buffer, Compile, Clear and Program.Draw must be called from the goroutine
// that calls Step (the frame goroutine). The cancel function returned by
// Frame may be called from any goroutine, including from inside the frame
// callback. Close may be called from any goroutine except the frame
// callback: it waits for a frame in progress to finish.
type Device struct {
	frameMu sync.Mutex // held while a frame callback runs
	dc      *gg.Context
	release io.Closer // owned context, nil when the caller owns dc
	depth   []float32
	slot    tricanvas.FrameSlot

	mu     sync.Mutex
	closed bool
	stats  Stats
}

// NewDevice returns a device rendering into dc. If dc is nil a width x height
// context is created and owned by the device.
func NewDevice(dc *gg.Context, width, height int) (*Device, error) {
	d := &Device{dc: dc}
	if dc == nil {
		if width <= 0 || height <= 0 {
			return nil, fmt.Errorf("software: invalid dimensions %dx%d: %w", width, height, tricanvas.ErrNoDevice)
		}
		d.dc = gg.NewContext(width, height)
		d.release = d.dc
		dc = d.dc
	}
	d.depth = make([]float32, dc.Width()*dc.Height())
	return d, nil
}

// Buffer implements tricanvas.Device. The software device reads vertices
// straight from vb.
func (d *Device) Buffer(vb *tricanvas.VertexBuffer) (tricanvas.Buffer, error) {
	if d.isClosed() {
		return nil, tricanvas.ErrClosed
	}
	if vb == nil {
		return nil, errors.New("software: nil vertex buffer")
	}
	return vb, nil
}

// Compile implements tricanvas.Device. The stages are reduced to a
// tricanvas.FlatProgram; shaders outside that form fail here with
// tricanvas.ErrUnsupportedShader rather than at draw time.
func (d *Device) Compile(desc tricanvas.ProgramDescriptor) (tricanvas.Program, error) {
	if d.isClosed() {
		return nil, tricanvas.ErrClosed
	}
	flat, err := desc.Flatten()
	if err != nil {
		return nil, fmt.Errorf("software: %w", err)
	}
	return &program{dev: d, flat: flat}, nil
}

// Clear implements tricanvas.Device.
func (d *Device) Clear(opts tricanvas.ClearOptions) error {
	if d.isClosed() {
		return tricanvas.ErrClosed
	}
	c := opts.Color.Clamped()
	d.dc.ClearWithColor(gg.RGBA{R: float64(c.R), G: float64(c.G), B: float64(c.B), A: float64(c.A)})
	for i := range d.depth {
		d.depth[i] = opts.Depth
	}

	d.mu.Lock()
	d.stats.Clears++
	d.mu.Unlock()
	return nil
}

// Frame implements tricanvas.Device.
func (d *Device) Frame(fn tricanvas.FrameFunc) func() {
	return d.slot.Set(fn)
}

// Step delivers one frame at time t (seconds) and returns the sample it
// passed to the callback. It is a no-op when no callback is registered.
func (d *Device) Step(t float64) (tricanvas.FrameSample, error) {
	d.frameMu.Lock()
	defer d.frameMu.Unlock()

	if d.isClosed() {
		return tricanvas.FrameSample{}, tricanvas.ErrClosed
	}
	fn, s := d.slot.Next(t, d.dc.Width(), d.dc.Height())
	if fn == nil {
		return s, nil
	}
	d.mu.Lock()
	d.stats.Frames++
	d.mu.Unlock()

	fn(s)
	return s, nil
}

// Retarget switches rendering to dc, resizing the depth plane if needed.
// Integrations that own the gg.Context (such as a GPU canvas) call this
// before each frame.
func (d *Device) Retarget(dc *gg.Context) {
	d.frameMu.Lock()
	defer d.frameMu.Unlock()
	d.retarget(dc)
}

func (d *Device) retarget(dc *gg.Context) {
	if dc == d.dc {
		if n := dc.Width() * dc.Height(); n != len(d.depth) {
			d.depth = make([]float32, n)
		}
		return
	}
	if d.release != nil {
		if err := d.release.Close(); err != nil {
			tricanvas.Logger().Warn("software: close replaced context", "err", err)
		}
		d.release = nil
	}
	d.dc = dc
	d.depth = make([]float32, dc.Width()*dc.Height())
}

// Resize changes the surface size.
func (d *Device) Resize(width, height int) error {
	d.frameMu.Lock()
	defer d.frameMu.Unlock()

	if err := d.dc.Resize(width, height); err != nil {
		return fmt.Errorf("software: resize: %w", err)
	}
	d.retarget(d.dc)
	return nil
}

// Image returns a snapshot of the color target.
func (d *Device) Image() image.Image {
	return d.dc.Image()
}

// Depth returns a copy of the depth plane.
func (d *Device) Depth() []float32 {
	out := make([]float32, len(d.depth))
	copy(out, d.depth)
	return out
}

// Size returns the surface size in pixels.
func (d *Device) Size() (width, height int) {
	return d.dc.Width(), d.dc.Height()
}

// Stats returns the operation counters.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Close implements tricanvas.Device.
func (d *Device) Close() error {
	d.frameMu.Lock()
	defer d.frameMu.Unlock()
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return tricanvas.ErrClosed
	}
	d.closed = true
	d.slot.Reset()
	if d.release != nil {
		return d.release.Close()
	}
	return nil
}

func (d *Device) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// program fills the triangles of a flat program.
type program struct {
	dev  *Device
	flat *tricanvas.FlatProgram
}

// Draw implements tricanvas.Program. Every declared uniform must be
// supplied, whether or not the fragment stage reads it.
func (p *program) Draw(u tricanvas.Uniforms) error {
	d := p.dev
	if d.isClosed() {
		return tricanvas.ErrClosed
	}
	for _, ub := range p.flat.Desc.Uniforms {
		if _, ok := u[ub.Name]; !ok {
			return fmt.Errorf("software: uniform %q not supplied", ub.Name)
		}
	}

	c := p.flat.Fill(u)
	positions := p.flat.Position.Buffer
	w, h := d.dc.Width(), d.dc.Height()
	for i := 0; i+2 < p.flat.Desc.Count; i += 3 {
		x0, y0 := tricanvas.ClipToPixel(p.flat.Clip(positions.At(i)), w, h)
		x1, y1 := tricanvas.ClipToPixel(p.flat.Clip(positions.At(i+1)), w, h)
		x2, y2 := tricanvas.ClipToPixel(p.flat.Clip(positions.At(i+2)), w, h)
		d.dc.MoveTo(x0, y0)
		d.dc.LineTo(x1, y1)
		d.dc.LineTo(x2, y2)
		d.dc.ClosePath()
	}
	d.dc.SetRGBA(float64(c.R), float64(c.G), float64(c.B), float64(c.A))
	if err := d.dc.Fill(); err != nil {
		return fmt.Errorf("software: fill: %w", err)
	}

	d.mu.Lock()
	d.stats.Draws++
	d.mu.Unlock()
	return nil
}
