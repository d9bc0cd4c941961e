// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package backend

import (
	"context"
	"errors"
	"image"

	"github.com/gogpu/tricanvas"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not registered.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotMounted is returned by Run when no device has been opened.
	ErrNotMounted = errors.New("backend: no device opened; mount a host first")
)

// Backend names.
const (
	BackendWindow   = "window"
	BackendEbiten   = "ebiten"
	BackendGPU      = "gpu"
	BackendSoftware = "software"
)

// Config holds the settings shared by all backends. Fields a backend has no
// use for are ignored.
type Config struct {
	// Width and Height are the initial surface size in pixels.
	Width, Height int

	// Title is the window title for windowed backends.
	Title string

	// FPS is the frame rate for backends that pace frames themselves.
	// Zero selects 60.
	FPS int

	// Frames stops the loop after this many frames. Zero runs until the
	// context is cancelled or the window closes. Headless backends only.
	Frames int

	// Step, when positive, replaces wall-clock time with Start + n*Step
	// seconds for frame n. Headless backends only.
	Start, Step float64

	// AfterFrame receives every rendered frame. Headless backends only.
	AfterFrame func(tricanvas.FrameSample, image.Image) error
}

// RenderBackend is a tricanvas.Backend that also drives the frame loop.
//
// Usage is Open (through tricanvas.Host.Mount), then Run, which blocks
// until the loop ends.
type RenderBackend interface {
	tricanvas.Backend

	// Name returns the backend identifier.
	Name() string

	// Run paces frames on the opened device until ctx is cancelled, the
	// window closes, or the configured frame limit is reached.
	Run(ctx context.Context) error
}
