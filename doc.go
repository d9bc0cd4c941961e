// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package tricanvas renders a single color-cycling triangle on a drawing
// surface.
//
// # Overview
//
// A [Host] owns one surface. Mount acquires a [Device] from a [Backend],
// uploads a three-vertex buffer, compiles one WGSL program and registers a
// [DrawLoop] with the device's frame pacer. Every frame clears the surface to
// transparent black and issues one draw whose color uniform is
// [FrameColor] of the frame time.
//
// # Quick Start
//
//	b := software.New(backend.Config{Width: 640, Height: 480})
//	h := tricanvas.NewHost(b)
//	if err := h.Mount(); err != nil {
//	    log.Fatal(err)
//	}
//	defer h.Unmount()
//
// # Backends
//
//   - software: CPU rasterization into a gg.Context, headless or ticker paced
//   - gogpuwindow: gogpu window, gg pixels uploaded through ggcanvas
//   - ebitenhost: ebiten window with a Kage fragment shader
//
// # Coordinate System
//
// Vertices are in clip space: x right, y up, both visible in [-1, 1].
// [ClipToPixel] maps them to top-left-origin pixel coordinates.
package tricanvas
