package tricanvas

import "math"

// Per-channel frequency multipliers applied to the frame time.
const (
	redFrequency   = 0.001
	greenFrequency = 0.0008
	blueFrequency  = 0.003
)

// Color is a 4-component float color as seen by the fragment stage.
// Components are not clamped; see Clamped.
type Color struct {
	R, G, B, A float32
}

// Transparent is fully transparent black.
var Transparent = Color{}

// FrameColor returns the triangle color for frame time t (seconds).
// Every channel is a deterministic function of the same clock:
//
//	R = cos(0.001 t), G = sin(0.0008 t), B = cos(0.003 t), A = 1
//
// R, G and B lie in [-1, 1].
func FrameColor(t float64) Color {
	return Color{
		R: float32(math.Cos(t * redFrequency)),
		G: float32(math.Sin(t * greenFrequency)),
		B: float32(math.Cos(t * blueFrequency)),
		A: 1,
	}
}

// Clamped returns c with every component clamped to [0, 1], which is what a
// unorm color target stores.
func (c Color) Clamped() Color {
	return Color{R: clamp01(c.R), G: clamp01(c.G), B: clamp01(c.B), A: clamp01(c.A)}
}

// Vec4 returns the components in shader order.
func (c Color) Vec4() [4]float32 {
	return [4]float32{c.R, c.G, c.B, c.A}
}

// RGBA8 returns the clamped color quantized to 8 bits per channel.
func (c Color) RGBA8() (r, g, b, a uint8) {
	k := c.Clamped()
	return to8(k.R), to8(k.G), to8(k.B), to8(k.A)
}

func clamp01(v float32) float32 {
	switch {
	case v < 0 || v != v:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func to8(v float32) uint8 {
	return uint8(v*255 + 0.5)
}
