package tricanvas

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
)

func triangleDesc(t *testing.T) ProgramDescriptor {
	t.Helper()
	vb, err := NewVertexBuffer(FullscreenTriangle())
	if err != nil {
		t.Fatalf("NewVertexBuffer() error = %v", err)
	}
	return TriangleProgram(vb)
}

func TestTriangleProgramSource(t *testing.T) {
	d := triangleDesc(t)
	for _, req := range []string{"@vertex", "@fragment", "vs_main", "fs_main", "var<uniform> color", "@location(0) position"} {
		if !strings.Contains(d.Vertex.Source, req) {
			t.Errorf("triangle shader missing %q", req)
		}
	}
	if d.Count != 3 {
		t.Errorf("Count = %d, want 3", d.Count)
	}
	a, ok := d.Attribute(AttributePosition)
	if !ok || a.Buffer.Len() != 3 {
		t.Errorf("position attribute = %+v, %v", a, ok)
	}
	if len(d.Uniforms) != 1 || d.Uniforms[0].Name != UniformColor {
		t.Errorf("Uniforms = %+v, want [color]", d.Uniforms)
	}
}

func TestProgramDescriptorValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ProgramDescriptor)
		ok     bool
	}{
		{"valid", func(*ProgramDescriptor) {}, true},
		{"zero count", func(d *ProgramDescriptor) { d.Count = 0 }, false},
		{"count exceeds buffer", func(d *ProgramDescriptor) { d.Count = 4 }, false},
		{"missing entry", func(d *ProgramDescriptor) { d.Fragment.EntryPoint = "" }, false},
		{"missing source", func(d *ProgramDescriptor) { d.Vertex.Source = "" }, false},
		{"nil buffer", func(d *ProgramDescriptor) { d.Attributes[0].Buffer = nil }, false},
		{"bad format", func(d *ProgramDescriptor) { d.Attributes[0].Format = gputypes.VertexFormatFloat32x4 }, false},
		{"duplicate name", func(d *ProgramDescriptor) { d.Uniforms[0].Name = AttributePosition }, false},
		{"empty uniform", func(d *ProgramDescriptor) { d.Uniforms[0].Name = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := triangleDesc(t)
			tt.mutate(&d)
			err := d.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidProgram) {
				t.Errorf("Validate() = %v, want ErrInvalidProgram", err)
			}
		})
	}
}

func TestProgramDescriptorCompile(t *testing.T) {
	p, err := triangleDesc(t).Compile()
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if len(p.Vertex) == 0 {
		t.Fatal("Compile() produced empty SPIR-V")
	}
	// SPIR-V magic number.
	if p.Vertex[0] != 0x07230203 {
		t.Errorf("SPIR-V magic = %#x, want 0x07230203", p.Vertex[0])
	}
	if len(p.Fragment) != len(p.Vertex) {
		t.Error("shared source module should compile once for both stages")
	}
}

func TestCompileWGSLError(t *testing.T) {
	if _, err := CompileWGSL("fn broken( {"); err == nil {
		t.Error("CompileWGSL() error = nil for malformed source")
	}
}
