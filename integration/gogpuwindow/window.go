// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gogpuwindow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/integration/ggcanvas"
	"github.com/gogpu/gogpu"
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/tricanvas"
	"github.com/gogpu/tricanvas/backend"
	"github.com/gogpu/tricanvas/backend/software"
)

func init() {
	backend.Register(backend.BackendWindow, func(cfg backend.Config) backend.RenderBackend {
		return New(cfg)
	})
}

const defaultTitle = "tricanvas"

// canvasTarget is the part of *ggcanvas.Canvas used per frame.
type canvasTarget interface {
	Size() (width, height int)
	Resize(width, height int) error
	Draw(fn func(*gg.Context)) error
	RenderTo(dc gpucontext.TextureDrawer) error
}

// Backend renders the triangle into a gogpu window.
type Backend struct {
	cfg backend.Config

	mu     sync.Mutex
	dev    *software.Device
	canvas canvasTarget
	closer func() error
	start  time.Time
}

// New returns a window backend. Width and Height set the initial window
// size.
func New(cfg backend.Config) *Backend {
	if cfg.Title == "" {
		cfg.Title = defaultTitle
	}
	return &Backend{cfg: cfg}
}

// Name implements backend.RenderBackend.
func (b *Backend) Name() string { return backend.BackendWindow }

// Open implements tricanvas.Backend. The device renders offscreen until the
// window delivers its first frame, then switches to the window canvas.
func (b *Backend) Open() (tricanvas.Device, error) {
	d, err := software.NewDevice(nil, b.cfg.Width, b.cfg.Height)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.dev = d
	b.mu.Unlock()
	return d, nil
}

// Run implements backend.RenderBackend. It opens the window and blocks
// until it closes or ctx is done; in the latter case it returns ctx.Err().
func (b *Backend) Run(ctx context.Context) error {
	b.mu.Lock()
	d := b.dev
	b.mu.Unlock()
	if d == nil {
		return backend.ErrNotMounted
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	app := gogpu.NewApp(gogpu.DefaultConfig().
		WithTitle(b.cfg.Title).
		WithSize(b.cfg.Width, b.cfg.Height).
		WithContinuousRender(true))

	app.OnDraw(func(dc *gogpu.Context) {
		if stopOnCancel(ctx, app.Quit) {
			return
		}
		w, h := dc.Width(), dc.Height()
		if w <= 0 || h <= 0 {
			return
		}
		if !b.ensureCanvas(app.GPUContextProvider(), w, h) {
			return
		}
		b.renderFrame(dc.AsTextureDrawer(), w, h)
	})
	app.OnClose(func() {
		b.mu.Lock()
		closer := b.closer
		b.canvas, b.closer = nil, nil
		b.mu.Unlock()
		if closer != nil {
			if err := closer(); err != nil {
				tricanvas.Logger().Warn("gogpuwindow: close canvas", "err", err)
			}
		}
	})

	tricanvas.Logger().Info("gogpuwindow: window opening",
		"title", b.cfg.Title, "width", b.cfg.Width, "height", b.cfg.Height)
	if err := app.Run(); err != nil {
		return fmt.Errorf("gogpuwindow: %w", err)
	}
	return ctx.Err()
}

// stopOnCancel calls quit and reports true once ctx is done.
func stopOnCancel(ctx context.Context, quit func()) bool {
	if ctx.Err() == nil {
		return false
	}
	tricanvas.Logger().Info("gogpuwindow: context done, closing window", "err", ctx.Err())
	quit()
	return true
}

// ensureCanvas creates the GPU canvas on the first frame, once the app has
// a device.
func (b *Backend) ensureCanvas(provider gpucontext.DeviceProvider, w, h int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.canvas != nil {
		return true
	}
	if provider == nil {
		return false
	}
	c, err := ggcanvas.New(provider, w, h)
	if err != nil {
		tricanvas.Logger().Error("gogpuwindow: create canvas", "err", err)
		return false
	}
	b.canvas = c
	b.closer = c.Close
	b.start = time.Now()
	tricanvas.Logger().Info("gogpuwindow: canvas created", "width", w, "height", h)
	return true
}

// renderFrame follows the window size, runs one frame into the canvas's
// gg.Context and presents it.
func (b *Backend) renderFrame(drawer gpucontext.TextureDrawer, w, h int) {
	b.mu.Lock()
	c, d, start := b.canvas, b.dev, b.start
	b.mu.Unlock()
	if c == nil || d == nil {
		return
	}

	if cw, ch := c.Size(); cw != w || ch != h {
		if err := c.Resize(w, h); err != nil {
			tricanvas.Logger().Warn("gogpuwindow: resize", "err", err)
		}
	}

	var stepErr error
	err := c.Draw(func(cc *gg.Context) {
		d.Retarget(cc)
		_, stepErr = d.Step(time.Since(start).Seconds())
	})
	if err == nil {
		err = stepErr
	}
	if err != nil {
		tricanvas.Logger().Warn("gogpuwindow: frame", "err", err)
		return
	}
	if err := c.RenderTo(drawer); err != nil {
		tricanvas.Logger().Warn("gogpuwindow: present", "err", err)
	}
}
