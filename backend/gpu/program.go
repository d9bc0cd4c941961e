// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"

	"github.com/gogpu/tricanvas"
)

// uniformSize is the byte size of a vec4<f32> uniform.
const uniformSize = 16

// program is a render pipeline with its bind groups and vertex bindings.
type program struct {
	dev   *Device
	desc  tricanvas.ProgramDescriptor
	count uint32

	modules   []*wgpu.ShaderModule
	layouts   []*wgpu.BindGroupLayout
	layout    *wgpu.PipelineLayout
	pipeline  *wgpu.RenderPipeline
	groups    []*wgpu.BindGroup
	uniforms  map[string]*wgpu.Buffer
	vertexBuf []*wgpu.Buffer
}

// Compile implements tricanvas.Device. The stages are compiled to SPIR-V
// and linked into a render pipeline: attribute i reads vertex buffer slot i
// at its declared location, and each uniform gets a 16-byte buffer at its
// declared group and binding.
func (d *Device) Compile(desc tricanvas.ProgramDescriptor) (tricanvas.Program, error) {
	if d.isClosed() {
		return nil, tricanvas.ErrClosed
	}
	cp, err := desc.Compile()
	if err != nil {
		return nil, err
	}

	p := &program{dev: d, desc: desc, count: uint32(desc.Count), uniforms: make(map[string]*wgpu.Buffer)}
	if err := p.build(cp); err != nil {
		p.release()
		return nil, fmt.Errorf("gpu: %s: %w", desc.Label, err)
	}
	d.programs = append(d.programs, p)
	tricanvas.Logger().Debug("gpu: pipeline created",
		"label", desc.Label, "attributes", len(desc.Attributes), "bind_groups", len(p.groups))
	return p, nil
}

func (p *program) build(cp *tricanvas.CompiledProgram) error {
	d := p.dev
	desc := cp.Desc

	vs, err := d.dev.CreateShaderModule(&wgpu.ShaderModuleDescriptor{Label: desc.Label + "_vs", SPIRV: cp.Vertex})
	if err != nil {
		return fmt.Errorf("create vertex module: %w", err)
	}
	p.modules = append(p.modules, vs)
	fs := vs
	if desc.Fragment.Source != desc.Vertex.Source {
		fs, err = d.dev.CreateShaderModule(&wgpu.ShaderModuleDescriptor{Label: desc.Label + "_fs", SPIRV: cp.Fragment})
		if err != nil {
			return fmt.Errorf("create fragment module: %w", err)
		}
		p.modules = append(p.modules, fs)
	}

	if err := p.bindUniforms(desc.Uniforms); err != nil {
		return err
	}
	p.layout, err = d.dev.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label + "_layout",
		BindGroupLayouts: p.layouts,
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}

	buffers := make([]gputypes.VertexBufferLayout, len(desc.Attributes))
	for i, a := range desc.Attributes {
		buf, err := d.upload(a.Buffer)
		if err != nil {
			return err
		}
		p.vertexBuf = append(p.vertexBuf, buf)
		buffers[i] = a.Buffer.Layout(a.Location)
	}

	p.pipeline, err = d.dev.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: p.layout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: desc.Vertex.EntryPoint,
			Buffers:    buffers,
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      gputypes.CompareFunctionLessEqual,
			StencilFront:      wgpu.StencilFaceState{Compare: gputypes.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: gputypes.CompareFunctionAlways},
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: desc.Fragment.EntryPoint,
			Targets: []gputypes.ColorTargetState{{
				Format:    colorFormat,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("create render pipeline: %w", err)
	}
	return nil
}

// bindUniforms creates one bind group layout per group index up to the
// highest used one, a uniform buffer per binding and the bind groups.
func (p *program) bindUniforms(uniforms []tricanvas.UniformBinding) error {
	if len(uniforms) == 0 {
		return nil
	}
	d := p.dev

	byGroup := make(map[uint32][]tricanvas.UniformBinding)
	var last uint32
	for _, u := range uniforms {
		byGroup[u.Group] = append(byGroup[u.Group], u)
		last = max(last, u.Group)
	}

	for g := uint32(0); g <= last; g++ {
		members := byGroup[g]
		slices.SortFunc(members, func(a, b tricanvas.UniformBinding) int { return int(a.Binding) - int(b.Binding) })

		entries := make([]gputypes.BindGroupLayoutEntry, len(members))
		for i, u := range members {
			entries[i] = gputypes.BindGroupLayoutEntry{
				Binding:    u.Binding,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer: &gputypes.BufferBindingLayout{
					Type:           gputypes.BufferBindingTypeUniform,
					MinBindingSize: uniformSize,
				},
			}
		}
		bgl, err := d.dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s_group%d_layout", p.desc.Label, g),
			Entries: entries,
		})
		if err != nil {
			return fmt.Errorf("create bind group layout %d: %w", g, err)
		}
		p.layouts = append(p.layouts, bgl)

		bindings := make([]wgpu.BindGroupEntry, len(members))
		for i, u := range members {
			buf, err := d.dev.CreateBuffer(&wgpu.BufferDescriptor{
				Label: "tricanvas_uniform_" + u.Name,
				Size:  uniformSize,
				Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
			})
			if err != nil {
				return fmt.Errorf("create uniform buffer %q: %w", u.Name, err)
			}
			p.uniforms[u.Name] = buf
			bindings[i] = wgpu.BindGroupEntry{Binding: u.Binding, Buffer: buf, Size: uniformSize}
		}
		bg, err := d.dev.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:   fmt.Sprintf("%s_group%d", p.desc.Label, g),
			Layout:  bgl,
			Entries: bindings,
		})
		if err != nil {
			return fmt.Errorf("create bind group %d: %w", g, err)
		}
		p.groups = append(p.groups, bg)
	}
	return nil
}

// Draw implements tricanvas.Program. Every declared uniform must be
// supplied.
func (p *program) Draw(u tricanvas.Uniforms) error {
	d := p.dev
	if d.isClosed() {
		return tricanvas.ErrClosed
	}
	for _, ub := range p.desc.Uniforms {
		c, ok := u[ub.Name]
		if !ok {
			return fmt.Errorf("gpu: uniform %q not supplied", ub.Name)
		}
		if err := d.queue.WriteBuffer(p.uniforms[ub.Name], 0, uniformBytes(c)); err != nil {
			return fmt.Errorf("gpu: write uniform %q: %w", ub.Name, err)
		}
	}

	err := d.pass(p.desc.Label, &wgpu.RenderPassDescriptor{
		Label: p.desc.Label,
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    d.colorView,
			LoadOp:  gputypes.LoadOpLoad,
			StoreOp: gputypes.StoreOpStore,
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:         d.depthView,
			DepthLoadOp:  gputypes.LoadOpLoad,
			DepthStoreOp: gputypes.StoreOpStore,
		},
	}, func(rp *wgpu.RenderPassEncoder) {
		rp.SetPipeline(p.pipeline)
		for i, bg := range p.groups {
			rp.SetBindGroup(uint32(i), bg, nil)
		}
		for slot, buf := range p.vertexBuf {
			rp.SetVertexBuffer(uint32(slot), buf, 0)
		}
		rp.Draw(p.count, 1, 0, 0)
	})
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.stats.Draws++
	d.mu.Unlock()
	return nil
}

func (p *program) release() {
	if p.pipeline != nil {
		p.pipeline.Release()
	}
	for _, bg := range p.groups {
		bg.Release()
	}
	for _, buf := range p.uniforms {
		buf.Release()
	}
	if p.layout != nil {
		p.layout.Release()
	}
	for _, l := range p.layouts {
		l.Release()
	}
	for _, m := range p.modules {
		m.Release()
	}
	p.pipeline, p.groups, p.layout, p.layouts, p.modules = nil, nil, nil, nil, nil
	clear(p.uniforms)
}

// uniformBytes encodes c as a little-endian vec4<f32>.
func uniformBytes(c tricanvas.Color) []byte {
	out := make([]byte, 0, uniformSize)
	for _, f := range c.Vec4() {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
	}
	return out
}
