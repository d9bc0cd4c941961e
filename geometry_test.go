package tricanvas

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestFullscreenTriangle(t *testing.T) {
	want := []Vertex{{-2, -2}, {4, -2}, {4, 4}}
	for range 2 {
		got := FullscreenTriangle()
		if len(got) != 3 {
			t.Fatalf("len = %d, want 3", len(got))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("vertex %d = %v, want %v", i, got[i], want[i])
			}
		}
		// Mutating the result must not leak into later calls.
		got[0] = Vertex{9, 9}
	}
}

func TestNewVertexBuffer(t *testing.T) {
	vb, err := NewVertexBuffer(FullscreenTriangle())
	if err != nil {
		t.Fatalf("NewVertexBuffer() error = %v", err)
	}
	if vb.Len() != 3 {
		t.Errorf("Len() = %d, want 3", vb.Len())
	}
	want := []float32{-2, -2, 4, -2, 4, 4}
	got := vb.Floats()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Floats()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	got[0] = 100
	if vb.At(0) != (Vertex{-2, -2}) {
		t.Error("Floats() returned an alias of the buffer data")
	}

	raw := vb.Bytes()
	if len(raw) != 24 {
		t.Fatalf("len(Bytes()) = %d, want 24", len(raw))
	}
	for i, w := range want {
		f := math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
		if f != w {
			t.Errorf("Bytes() float %d = %v, want %v", i, f, w)
		}
	}
}

func TestNewVertexBufferErrors(t *testing.T) {
	inf := float32(math.Inf(1))
	tests := []struct {
		name string
		in   []Vertex
	}{
		{"empty", nil},
		{"nan", []Vertex{{0, float32(math.NaN())}}},
		{"inf", []Vertex{{inf, 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewVertexBuffer(tt.in); err == nil {
				t.Error("NewVertexBuffer() error = nil, want error")
			}
		})
	}
}

func TestVertexBufferLayout(t *testing.T) {
	vb, _ := NewVertexBuffer(FullscreenTriangle())
	l := vb.Layout(0)
	if l.ArrayStride != 8 {
		t.Errorf("ArrayStride = %d, want 8", l.ArrayStride)
	}
	if len(l.Attributes) != 1 || l.Attributes[0].Format != gputypes.VertexFormatFloat32x2 {
		t.Errorf("Attributes = %+v, want one float32x2", l.Attributes)
	}
}

func TestClipToPixel(t *testing.T) {
	tests := []struct {
		v      Vertex
		wx, wy float64
	}{
		{Vertex{-1, 1}, 0, 0},
		{Vertex{1, -1}, 200, 100},
		{Vertex{0, 0}, 100, 50},
		{Vertex{-2, -2}, -100, 150},
		{Vertex{4, 4}, 500, -150},
	}
	for _, tt := range tests {
		x, y := ClipToPixel(tt.v, 200, 100)
		if x != tt.wx || y != tt.wy {
			t.Errorf("ClipToPixel(%v) = (%v, %v), want (%v, %v)", tt.v, x, y, tt.wx, tt.wy)
		}
	}
}
