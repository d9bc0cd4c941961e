// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package software is the CPU backend for tricanvas.
//
// A Device rasterizes the triangle program into a gg.Context: Clear fills the
// pixmap and resets a depth plane, Draw projects the bound vertices to pixels
// and fills them with the clamped color uniform. Frames are delivered either
// one at a time with Device.Step (headless rendering, tests) or paced by
// Backend.Run.
//
// Rendered frames can be written out with Save as PNG, BMP or TIFF.
package software
