// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package backend is the registry of tricanvas rendering backends.
//
// Backends register themselves from init, so importing a backend package is
// enough to make it selectable by name:
//
//	import (
//		"github.com/gogpu/tricanvas/backend"
//		_ "github.com/gogpu/tricanvas/backend/software"
//	)
//
//	b, err := backend.Get(backend.BackendSoftware, backend.Config{Width: 640, Height: 480})
//	if err != nil {
//		log.Fatal(err)
//	}
//	h := tricanvas.NewHost(b)
//	if err := h.Mount(); err != nil {
//		log.Fatal(err)
//	}
//	defer h.Unmount()
//	err = b.Run(ctx)
//
// # Available Backends
//
//   - "window": gogpu window (integration/gogpuwindow)
//   - "ebiten": ebiten window with a Kage shader (integration/ebitenhost)
//   - "software": CPU rasterizer, headless or ticker paced (backend/software)
package backend
