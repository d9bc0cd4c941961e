package tricanvas

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
)

// Names used by the triangle program.
const (
	AttributePosition = "position"
	UniformColor      = "color"
)

// triangleWGSL holds both stages of the triangle program. The vertex stage
// passes the position through unchanged; the fragment stage writes the
// color uniform.
const triangleWGSL = `@group(0) @binding(0) var<uniform> color: vec4<f32>;

@vertex
fn vs_main(@location(0) position: vec2<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(position, 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return color;
}
`

// ErrInvalidProgram is returned when a ProgramDescriptor is malformed.
var ErrInvalidProgram = errors.New("tricanvas: invalid program descriptor")

// ShaderStage is the WGSL source and entry point of one pipeline stage.
// Stages may share one source module.
type ShaderStage struct {
	Source     string
	EntryPoint string
}

// AttributeBinding binds a vertex buffer to a named shader input.
type AttributeBinding struct {
	Name     string
	Location uint32
	Format   gputypes.VertexFormat
	Buffer   *VertexBuffer
}

// UniformBinding declares a vec4<f32> uniform supplied at draw time.
type UniformBinding struct {
	Name    string
	Group   uint32
	Binding uint32
}

// ProgramDescriptor describes a draw command: two shader stages, their
// attribute and uniform interfaces, and the vertex count per draw.
type ProgramDescriptor struct {
	Label      string
	Vertex     ShaderStage
	Fragment   ShaderStage
	Attributes []AttributeBinding
	Uniforms   []UniformBinding
	Count      int
}

// TriangleProgram returns the descriptor of the color-cycling triangle with
// vb bound to the position attribute.
func TriangleProgram(vb *VertexBuffer) ProgramDescriptor {
	return ProgramDescriptor{
		Label:    "tricanvas-triangle",
		Vertex:   ShaderStage{Source: triangleWGSL, EntryPoint: "vs_main"},
		Fragment: ShaderStage{Source: triangleWGSL, EntryPoint: "fs_main"},
		Attributes: []AttributeBinding{
			{Name: AttributePosition, Location: 0, Format: gputypes.VertexFormatFloat32x2, Buffer: vb},
		},
		Uniforms: []UniformBinding{
			{Name: UniformColor, Group: 0, Binding: 0},
		},
		Count: 3,
	}
}

// Validate checks the descriptor for structural errors.
func (d ProgramDescriptor) Validate() error {
	if d.Count <= 0 {
		return fmt.Errorf("%w: vertex count %d", ErrInvalidProgram, d.Count)
	}
	for _, st := range []struct {
		name  string
		stage ShaderStage
	}{{"vertex", d.Vertex}, {"fragment", d.Fragment}} {
		if st.stage.Source == "" || st.stage.EntryPoint == "" {
			return fmt.Errorf("%w: %s stage needs source and entry point", ErrInvalidProgram, st.name)
		}
	}

	seen := make(map[string]bool, len(d.Attributes)+len(d.Uniforms))
	for _, a := range d.Attributes {
		if a.Name == "" || seen[a.Name] {
			return fmt.Errorf("%w: attribute name %q empty or duplicated", ErrInvalidProgram, a.Name)
		}
		seen[a.Name] = true
		if a.Format != gputypes.VertexFormatFloat32x2 {
			return fmt.Errorf("%w: attribute %q: only float32x2 is supported", ErrInvalidProgram, a.Name)
		}
		if a.Buffer == nil {
			return fmt.Errorf("%w: attribute %q has no buffer", ErrInvalidProgram, a.Name)
		}
		if a.Buffer.Len() < d.Count {
			return fmt.Errorf("%w: attribute %q has %d vertices, need %d",
				ErrInvalidProgram, a.Name, a.Buffer.Len(), d.Count)
		}
	}
	for _, u := range d.Uniforms {
		if u.Name == "" || seen[u.Name] {
			return fmt.Errorf("%w: uniform name %q empty or duplicated", ErrInvalidProgram, u.Name)
		}
		seen[u.Name] = true
	}
	return nil
}

// Attribute returns the binding named name.
func (d ProgramDescriptor) Attribute(name string) (AttributeBinding, bool) {
	for _, a := range d.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return AttributeBinding{}, false
}

// CompiledProgram is a validated descriptor plus SPIR-V for its stages.
type CompiledProgram struct {
	Desc     ProgramDescriptor
	Vertex   []uint32
	Fragment []uint32
}

// Compile validates d and compiles its stages to SPIR-V. Stages that share a
// source module are compiled once.
func (d ProgramDescriptor) Compile() (*CompiledProgram, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	vs, err := CompileWGSL(d.Vertex.Source)
	if err != nil {
		return nil, fmt.Errorf("tricanvas: %s vertex stage: %w", d.Label, err)
	}
	fs := vs
	if d.Fragment.Source != d.Vertex.Source {
		fs, err = CompileWGSL(d.Fragment.Source)
		if err != nil {
			return nil, fmt.Errorf("tricanvas: %s fragment stage: %w", d.Label, err)
		}
	}
	Logger().Debug("tricanvas: program compiled",
		"label", d.Label, "vertex_words", len(vs), "fragment_words", len(fs))
	return &CompiledProgram{Desc: d, Vertex: vs, Fragment: fs}, nil
}

// CompileWGSL compiles WGSL source to SPIR-V words.
func CompileWGSL(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("failed to compile shader: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("failed to compile shader: SPIR-V length %d not a multiple of 4", len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}
