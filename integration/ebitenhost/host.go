// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build cgo

package ebitenhost

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/gogpu/tricanvas"
	"github.com/gogpu/tricanvas/backend"
)

var errNoFrame = errors.New("ebitenhost: no frame in progress")

// Backend renders the triangle into an ebiten window.
type Backend struct {
	cfg backend.Config

	mu  sync.Mutex
	dev *Device
}

// New returns an ebiten backend. Width and Height set the initial window
// size; the surface follows the window afterwards.
func New(cfg backend.Config) *Backend {
	if cfg.Title == "" {
		cfg.Title = defaultTitle
	}
	return &Backend{cfg: cfg}
}

// Name implements backend.RenderBackend.
func (b *Backend) Name() string { return backend.BackendEbiten }

// Open implements tricanvas.Backend.
func (b *Backend) Open() (tricanvas.Device, error) {
	if b.cfg.Width <= 0 || b.cfg.Height <= 0 {
		return nil, fmt.Errorf("ebitenhost: invalid dimensions %dx%d: %w",
			b.cfg.Width, b.cfg.Height, tricanvas.ErrNoDevice)
	}
	d := &Device{}
	b.mu.Lock()
	b.dev = d
	b.mu.Unlock()
	return d, nil
}

// Run implements backend.RenderBackend. It blocks until the window closes or
// ctx is cancelled.
func (b *Backend) Run(ctx context.Context) error {
	b.mu.Lock()
	d := b.dev
	b.mu.Unlock()
	if d == nil {
		return backend.ErrNotMounted
	}

	fps := b.cfg.FPS
	if fps <= 0 {
		fps = 60
	}
	ebiten.SetWindowTitle(b.cfg.Title)
	ebiten.SetWindowSize(b.cfg.Width, b.cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(fps)

	tricanvas.Logger().Info("ebitenhost: window opening",
		"title", b.cfg.Title, "width", b.cfg.Width, "height", b.cfg.Height)
	err := ebiten.RunGame(&game{ctx: ctx, dev: d, start: time.Now()})
	if errors.Is(err, ebiten.Termination) {
		return ctx.Err()
	}
	return err
}

// game adapts the device to ebiten's update/draw cycle.
type game struct {
	ctx   context.Context
	dev   *Device
	start time.Time
}

func (g *game) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	if err := g.dev.step(screen, time.Since(g.start).Seconds()); err != nil {
		tricanvas.Logger().Warn("ebitenhost: frame", "err", err)
	}
}

// Layout keeps the surface the size of the window.
func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// Device draws with ebiten on the screen image of the current frame. Close
// waits for a frame in progress, so it must not be called from inside the
// frame callback.
type Device struct {
	frameMu sync.Mutex
	slot    tricanvas.FrameSlot

	mu      sync.Mutex
	screen  *ebiten.Image
	closed  bool
	shaders []*ebiten.Shader
}

// Buffer implements tricanvas.Device.
func (d *Device) Buffer(vb *tricanvas.VertexBuffer) (tricanvas.Buffer, error) {
	if d.isClosed() {
		return nil, tricanvas.ErrClosed
	}
	if vb == nil {
		return nil, errors.New("ebitenhost: nil vertex buffer")
	}
	return vb, nil
}

// Compile implements tricanvas.Device. The program is folded to a
// tricanvas.FlatProgram and drawn with the Kage fill shader.
func (d *Device) Compile(desc tricanvas.ProgramDescriptor) (tricanvas.Program, error) {
	if d.isClosed() {
		return nil, tricanvas.ErrClosed
	}
	flat, err := desc.Flatten()
	if err != nil {
		return nil, fmt.Errorf("ebitenhost: %w", err)
	}
	sh, err := ebiten.NewShader([]byte(kageSource))
	if err != nil {
		return nil, fmt.Errorf("ebitenhost: compile kage: %w", err)
	}

	d.mu.Lock()
	d.shaders = append(d.shaders, sh)
	d.mu.Unlock()
	return &program{dev: d, shader: sh, flat: flat}, nil
}

// Clear implements tricanvas.Device. Ebiten has no depth buffer, so
// opts.Depth is ignored.
func (d *Device) Clear(opts tricanvas.ClearOptions) error {
	screen, err := d.target()
	if err != nil {
		return err
	}
	if opts.Color == tricanvas.Transparent {
		screen.Clear()
		return nil
	}
	r, g, b, a := opts.Color.RGBA8()
	screen.Fill(color.NRGBA{R: r, G: g, B: b, A: a})
	return nil
}

// Frame implements tricanvas.Device.
func (d *Device) Frame(fn tricanvas.FrameFunc) func() {
	return d.slot.Set(fn)
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
	for _, sh := range d.shaders {
		sh.Deallocate()
	}
	d.shaders = nil
	return nil
}

// step runs the registered callback against screen.
func (d *Device) step(screen *ebiten.Image, t float64) error {
	d.frameMu.Lock()
	defer d.frameMu.Unlock()

	if d.isClosed() {
		return tricanvas.ErrClosed
	}
	b := screen.Bounds()
	fn, s := d.slot.Next(t, b.Dx(), b.Dy())
	if fn == nil {
		return nil
	}
	d.mu.Lock()
	d.screen = screen
	d.mu.Unlock()

	fn(s)

	d.mu.Lock()
	d.screen = nil
	d.mu.Unlock()
	return nil
}

func (d *Device) target() (*ebiten.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, tricanvas.ErrClosed
	}
	if d.screen == nil {
		return nil, errNoFrame
	}
	return d.screen, nil
}

func (d *Device) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

type program struct {
	dev    *Device
	shader *ebiten.Shader
	flat   *tricanvas.FlatProgram
}

// Draw implements tricanvas.Program.
func (p *program) Draw(u tricanvas.Uniforms) error {
	screen, err := p.dev.target()
	if err != nil {
		return err
	}
	uniforms, err := kageUniforms(p.flat, u)
	if err != nil {
		return err
	}

	b := screen.Bounds()
	pts := project(p.flat, b.Dx(), b.Dy())
	vertices := make([]ebiten.Vertex, len(pts))
	indices := make([]uint16, len(pts))
	for i, pt := range pts {
		vertices[i] = ebiten.Vertex{
			DstX: pt.X, DstY: pt.Y,
			ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1,
		}
		indices[i] = uint16(i)
	}
	screen.DrawTrianglesShader(vertices, indices, p.shader, &ebiten.DrawTrianglesShaderOptions{
		Uniforms: uniforms,
	})
	return nil
}
