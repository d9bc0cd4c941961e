// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !cgo

package ebitenhost

import (
	"context"
	"fmt"

	"github.com/gogpu/tricanvas"
	"github.com/gogpu/tricanvas/backend"
)

// Backend is unavailable without cgo; Open always fails.
type Backend struct {
	cfg backend.Config
}

// New returns a backend whose Open reports that no device is available.
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
	return nil, fmt.Errorf("ebitenhost: window mode requires cgo (build with CGO_ENABLED=1): %w", tricanvas.ErrNoDevice)
}

// Run implements backend.RenderBackend.
func (b *Backend) Run(context.Context) error {
	return backend.ErrNotMounted
}
