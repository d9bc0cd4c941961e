// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package ebitenhost

import (
	"fmt"

	"github.com/gogpu/tricanvas"
)

// kageSource fills with the Color uniform. Kage supplies its own vertex
// stage, so positions are projected to pixels before the draw call and the
// program's fragment stage is folded to a single color on the CPU.
const kageSource = `//kage:unit pixels

package main

var Color vec4

func Fragment(dstPos vec4, srcPos vec2, color vec4) vec4 {
	return clamp(Color, vec4(0), vec4(1))
}
`

// kageUniforms returns the Kage uniform values drawing flat with u.
func kageUniforms(flat *tricanvas.FlatProgram, u tricanvas.Uniforms) (map[string]any, error) {
	for _, ub := range flat.Desc.Uniforms {
		if _, ok := u[ub.Name]; !ok {
			return nil, fmt.Errorf("ebitenhost: uniform %q not supplied", ub.Name)
		}
	}
	v := flat.Fill(u).Vec4()
	return map[string]any{"Color": v[:]}, nil
}

// projected is a vertex in destination pixels.
type projected struct {
	X, Y float32
}

// project maps the vertices of flat onto a width x height target.
func project(flat *tricanvas.FlatProgram, width, height int) []projected {
	out := make([]projected, flat.Desc.Count)
	for i := range out {
		x, y := tricanvas.ClipToPixel(flat.Clip(flat.Position.Buffer.At(i)), width, height)
		out[i] = projected{X: float32(x), Y: float32(y)}
	}
	return out
}
