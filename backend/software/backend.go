// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package software

import (
	"context"
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/tricanvas"
	"github.com/gogpu/tricanvas/backend"
)

func init() {
	backend.Register(backend.BackendSoftware, func(cfg backend.Config) backend.RenderBackend {
		return New(cfg)
	})
}

// Option configures a Backend.
type Option func(*Backend)

// WithContext renders into dc instead of a context owned by the device.
// The caller keeps ownership of dc.
func WithContext(dc *gg.Context) Option {
	return func(b *Backend) {
		b.dc = dc
	}
}

// Backend opens software devices and paces their frames.
type Backend struct {
	cfg backend.Config
	dc  *gg.Context

	mu  sync.Mutex
	dev *Device
}

// New returns a software backend. cfg.Width and cfg.Height size the surface
// unless WithContext supplies one.
func New(cfg backend.Config, opts ...Option) *Backend {
	b := &Backend{cfg: cfg}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name implements backend.RenderBackend.
func (b *Backend) Name() string { return backend.BackendSoftware }

// Open implements tricanvas.Backend.
func (b *Backend) Open() (tricanvas.Device, error) {
	d, err := NewDevice(b.dc, b.cfg.Width, b.cfg.Height)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.dev = d
	b.mu.Unlock()

	w, h := d.Size()
	tricanvas.Logger().Info("software: device opened", "width", w, "height", h)
	return d, nil
}

// Device returns the most recently opened device, or nil.
func (b *Backend) Device() *Device {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dev
}

// Run implements backend.RenderBackend. Frames are paced by backend.Pace.
func (b *Backend) Run(ctx context.Context) error {
	d := b.Device()
	if d == nil {
		return backend.ErrNotMounted
	}
	return backend.Pace(ctx, "software", b.cfg, d)
}
