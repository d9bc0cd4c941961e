// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package ebitenhost shows the tricanvas triangle in an ebiten window.
//
// The triangle program is drawn with a Kage fragment shader whose exported
// Color variable receives the color uniform by name. Frames are paced by
// ebiten's draw cycle and the surface follows the window size. Ebiten has
// no depth buffer; clears only touch color.
//
// The package needs cgo. Built without it, Open returns an error wrapping
// tricanvas.ErrNoDevice.
//
// Importing the package registers it as the "ebiten" backend.
package ebitenhost

import "github.com/gogpu/tricanvas/backend"

const defaultTitle = "tricanvas"

func init() {
	backend.Register(backend.BackendEbiten, func(cfg backend.Config) backend.RenderBackend {
		return New(cfg)
	})
}
