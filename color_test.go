package tricanvas

import (
	"math"
	"testing"
)

const colorEpsilon = 1e-5

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) <= colorEpsilon
}

func TestFrameColor(t *testing.T) {
	tests := []struct {
		name string
		t    float64
		want Color
	}{
		{"zero", 0, Color{R: 1, G: 0, B: 1, A: 1}},
		{"one thousand", 1000, Color{R: 0.5403023, G: 0.7173561, B: -0.9899925, A: 1}},
		{"quarter turn red", math.Pi / 2 / 0.001, Color{
			R: 0,
			G: float32(math.Sin(math.Pi / 2 / 0.001 * 0.0008)),
			B: float32(math.Cos(math.Pi / 2 / 0.001 * 0.003)),
			A: 1,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FrameColor(tt.t)
			if !approx(got.R, tt.want.R) || !approx(got.G, tt.want.G) ||
				!approx(got.B, tt.want.B) || got.A != tt.want.A {
				t.Errorf("FrameColor(%v) = %+v, want %+v", tt.t, got, tt.want)
			}
		})
	}
}

func TestFrameColorMatchesFormula(t *testing.T) {
	for ts := 0.0; ts < 20000; ts += 137.5 {
		got := FrameColor(ts)
		want := Color{
			R: float32(math.Cos(ts * 0.001)),
			G: float32(math.Sin(ts * 0.0008)),
			B: float32(math.Cos(ts * 0.003)),
			A: 1,
		}
		if got != want {
			t.Fatalf("FrameColor(%v) = %+v, want %+v", ts, got, want)
		}
		v := got.Vec4()
		for i, c := range v[:3] {
			if c < -1 || c > 1 {
				t.Fatalf("FrameColor(%v) channel %d = %v, outside [-1, 1]", ts, i, c)
			}
		}
	}
}

func TestColorClamped(t *testing.T) {
	nan := float32(math.NaN())
	tests := []struct {
		in, want Color
	}{
		{Color{R: -0.5, G: 0.25, B: 1.5, A: 1}, Color{R: 0, G: 0.25, B: 1, A: 1}},
		{Color{R: nan, G: -1, B: 0, A: 2}, Color{R: 0, G: 0, B: 0, A: 1}},
		{Transparent, Transparent},
	}
	for _, tt := range tests {
		if got := tt.in.Clamped(); got != tt.want {
			t.Errorf("%+v.Clamped() = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestColorRGBA8(t *testing.T) {
	r, g, b, a := FrameColor(0).RGBA8()
	if r != 255 || g != 0 || b != 255 || a != 255 {
		t.Errorf("FrameColor(0).RGBA8() = (%d, %d, %d, %d), want (255, 0, 255, 255)", r, g, b, a)
	}
	r, _, b, _ = FrameColor(1000).RGBA8()
	if r != 138 || b != 0 {
		t.Errorf("FrameColor(1000).RGBA8() r=%d b=%d, want r=138 b=0", r, b)
	}
}
