// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"context"
	"sync"

	"github.com/gogpu/tricanvas"
	"github.com/gogpu/tricanvas/backend"
)

func init() {
	backend.Register(backend.BackendGPU, func(cfg backend.Config) backend.RenderBackend {
		return New(cfg)
	})
}

// Backend opens headless GPU devices and paces their frames.
type Backend struct {
	cfg backend.Config

	mu  sync.Mutex
	dev *Device
}

// New returns a GPU backend with a cfg.Width x cfg.Height surface.
func New(cfg backend.Config) *Backend {
	return &Backend{cfg: cfg}
}

// Name implements backend.RenderBackend.
func (b *Backend) Name() string { return backend.BackendGPU }

// Open implements tricanvas.Backend. It fails with tricanvas.ErrNoDevice
// when no hardware adapter is present.
func (b *Backend) Open() (tricanvas.Device, error) {
	d, err := Open(b.cfg.Width, b.cfg.Height)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.dev = d
	b.mu.Unlock()
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
	return backend.Pace(ctx, "gpu", b.cfg, d)
}
