// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package gpu renders tricanvas programs on a wgpu device.
//
// The device compiles each ProgramDescriptor to SPIR-V, builds a render
// pipeline from its attribute layouts, entry points and uniform bindings,
// and draws into an offscreen RGBA8 color target with a Depth32Float depth
// target. After each frame the color target is copied back to host memory,
// so frames are available as images for windows, files and tests.
//
// A device can wrap an existing *wgpu.Device (such as the one a gogpu window
// owns, see FromProvider) or open its own (Open). The package registers the
// headless "gpu" backend, which opens its own device and refuses software
// adapters; use the "software" backend for CPU rendering.
package gpu
