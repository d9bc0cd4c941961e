// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package gogpuwindow shows the tricanvas triangle in a gogpu window.
//
// The data flow is:
//
//	software.Device (draw) -> ggcanvas.Canvas -> GPU texture -> gogpu window
//
// Frames are paced by the window's draw callback. The canvas follows the
// window size and is released when the window closes.
//
// Importing the package registers it as the "window" backend.
package gogpuwindow
