package tricanvas

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
)

// Vertex is a clip-space position.
type Vertex [2]float32

// vertexStride is the byte size of one packed Vertex (float32x2).
const vertexStride = 8

// FullscreenTriangle returns the three vertices of the frame triangle.
//
// The coordinates reach past the [-1, 1] clip range on purpose; the
// rasterizer clips them. The hypotenuse runs along y = x, so the visible
// area is the half of the viewport where y <= x.
func FullscreenTriangle() []Vertex {
	return []Vertex{
		{-2, -2},
		{4, -2},
		{4, 4},
	}
}

// VertexBuffer is an immutable packed sequence of vertices, laid out as
// x0, y0, x1, y1, ... in float32.
type VertexBuffer struct {
	data []float32
}

// NewVertexBuffer flattens vs into a packed buffer. The input slice is not
// retained.
func NewVertexBuffer(vs []Vertex) (*VertexBuffer, error) {
	if len(vs) == 0 {
		return nil, fmt.Errorf("tricanvas: empty vertex buffer")
	}
	data := make([]float32, 0, len(vs)*2)
	for i, v := range vs {
		if !finite(v[0]) || !finite(v[1]) {
			return nil, fmt.Errorf("tricanvas: vertex %d is not finite: %v", i, v)
		}
		data = append(data, v[0], v[1])
	}
	return &VertexBuffer{data: data}, nil
}

// Len returns the number of vertices.
func (b *VertexBuffer) Len() int {
	return len(b.data) / 2
}

// At returns vertex i.
func (b *VertexBuffer) At(i int) Vertex {
	return Vertex{b.data[2*i], b.data[2*i+1]}
}

// Floats returns a copy of the packed data.
func (b *VertexBuffer) Floats() []float32 {
	out := make([]float32, len(b.data))
	copy(out, b.data)
	return out
}

// Bytes returns the packed data as little-endian float32, the layout a GPU
// vertex buffer upload expects.
func (b *VertexBuffer) Bytes() []byte {
	out := make([]byte, 4*len(b.data))
	for i, f := range b.data {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(f))
	}
	return out
}

// Layout describes the buffer to a render pipeline: one float32x2 position
// attribute at the given shader location.
func (b *VertexBuffer) Layout(location uint32) gputypes.VertexBufferLayout {
	return gputypes.VertexBufferLayout{
		ArrayStride: vertexStride,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{
				Format:         gputypes.VertexFormatFloat32x2,
				Offset:         0,
				ShaderLocation: location,
			},
		},
	}
}

// ClipToPixel maps a clip-space position onto a width x height surface with
// the origin at the top-left corner and y pointing down.
func ClipToPixel(v Vertex, width, height int) (x, y float64) {
	x = (float64(v[0]) + 1) * 0.5 * float64(width)
	y = (1 - float64(v[1])) * 0.5 * float64(height)
	return x, y
}

func finite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}
