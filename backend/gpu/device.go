// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"
	_ "github.com/gogpu/wgpu/hal/allbackends"

	"github.com/gogpu/tricanvas"
)

const (
	colorFormat = gputypes.TextureFormatRGBA8Unorm
	depthFormat = gputypes.TextureFormatDepth32Float
)

// Stats counts operations issued on a Device.
type Stats struct {
	Frames    uint64
	Clears    uint64
	Draws     uint64
	Readbacks uint64
}

// Device renders on a wgpu device into offscreen targets.
//
// Buffer, Compile, Clear and Program.Draw must be called from the goroutine
// that calls Step. Close may be called from any goroutine except the frame
// callback: it waits for a frame in progress to finish.
type Device struct {
	frameMu sync.Mutex
	slot    tricanvas.FrameSlot

	dev     *wgpu.Device
	queue   *wgpu.Queue
	release func() // non-nil when Open created dev

	width, height uint32
	color         *wgpu.Texture
	colorView     *wgpu.TextureView
	depth         *wgpu.Texture
	depthView     *wgpu.TextureView
	img           *image.RGBA
	dirty         bool

	buffers  map[*tricanvas.VertexBuffer]*wgpu.Buffer
	programs []*program

	mu     sync.Mutex
	closed bool
	stats  Stats
}

// FromProvider returns the wgpu device behind provider. Software adapters
// are rejected with tricanvas.ErrNoDevice since they do not run shaders.
func FromProvider(provider gpucontext.DeviceProvider) (*wgpu.Device, error) {
	if provider == nil {
		return nil, fmt.Errorf("gpu: nil provider: %w", tricanvas.ErrNoDevice)
	}
	if provider.AdapterInfo().Type == gpucontext.AdapterTypeSoftware {
		return nil, fmt.Errorf("gpu: software adapter %q: %w", provider.AdapterInfo().Name, tricanvas.ErrNoDevice)
	}
	if a, ok := provider.Adapter().(*wgpu.Adapter); ok && a.Info().DeviceType == gputypes.DeviceTypeCPU {
		return nil, fmt.Errorf("gpu: software adapter: %w", tricanvas.ErrNoDevice)
	}
	dev, ok := provider.Device().(*wgpu.Device)
	if !ok || dev == nil {
		return nil, fmt.Errorf("gpu: provider device is %T, not *wgpu.Device: %w", provider.Device(), tricanvas.ErrNoDevice)
	}
	return dev, nil
}

// Open creates a wgpu instance, adapter and device and returns a width x
// height Device that owns them. Software adapters are rejected.
func Open(width, height int) (*Device, error) {
	inst, err := wgpu.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("gpu: create instance: %v: %w", err, tricanvas.ErrNoDevice)
	}
	adapter, err := inst.RequestAdapter(nil)
	if err != nil {
		inst.Release()
		return nil, fmt.Errorf("gpu: request adapter: %v: %w", err, tricanvas.ErrNoDevice)
	}
	if adapter.Info().DeviceType == gputypes.DeviceTypeCPU {
		adapter.Release()
		inst.Release()
		return nil, fmt.Errorf("gpu: only a software adapter is available: %w", tricanvas.ErrNoDevice)
	}
	dev, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		inst.Release()
		return nil, fmt.Errorf("gpu: request device: %v: %w", err, tricanvas.ErrNoDevice)
	}

	d, err := NewDevice(dev, width, height)
	if err != nil {
		dev.Release()
		adapter.Release()
		inst.Release()
		return nil, err
	}
	d.release = func() {
		dev.Release()
		adapter.Release()
		inst.Release()
	}
	tricanvas.Logger().Info("gpu: device opened", "adapter", adapter.Info().Name, "width", width, "height", height)
	return d, nil
}

// NewDevice returns a width x height Device drawing on dev. The caller keeps
// ownership of dev.
func NewDevice(dev *wgpu.Device, width, height int) (*Device, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("gpu: invalid dimensions %dx%d: %w", width, height, tricanvas.ErrNoDevice)
	}
	if dev == nil || dev.Queue() == nil {
		return nil, fmt.Errorf("gpu: device has no queue: %w", tricanvas.ErrNoDevice)
	}
	d := &Device{
		dev:     dev,
		queue:   dev.Queue(),
		buffers: make(map[*tricanvas.VertexBuffer]*wgpu.Buffer),
	}
	if err := d.createTargets(uint32(width), uint32(height)); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Device) createTargets(w, h uint32) error {
	size := wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}
	color, err := d.dev.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "tricanvas_color",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        colorFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("gpu: create color target: %w", err)
	}
	colorView, err := d.dev.CreateTextureView(color, &wgpu.TextureViewDescriptor{
		Label:         "tricanvas_color_view",
		Format:        colorFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		color.Release()
		return fmt.Errorf("gpu: create color view: %w", err)
	}
	depth, err := d.dev.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "tricanvas_depth",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        depthFormat,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		colorView.Release()
		color.Release()
		return fmt.Errorf("gpu: create depth target: %w", err)
	}
	depthView, err := d.dev.CreateTextureView(depth, &wgpu.TextureViewDescriptor{
		Label:         "tricanvas_depth_view",
		Format:        depthFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		depth.Release()
		colorView.Release()
		color.Release()
		return fmt.Errorf("gpu: create depth view: %w", err)
	}

	d.width, d.height = w, h
	d.color, d.colorView, d.depth, d.depthView = color, colorView, depth, depthView
	d.img = image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	return nil
}

func (d *Device) releaseTargets() {
	if d.depthView != nil {
		d.depthView.Release()
	}
	if d.depth != nil {
		d.depth.Release()
	}
	if d.colorView != nil {
		d.colorView.Release()
	}
	if d.color != nil {
		d.color.Release()
	}
	d.color, d.colorView, d.depth, d.depthView = nil, nil, nil, nil
}

// Buffer implements tricanvas.Device. The vertices are uploaded once per
// device; later calls with the same vb return the same buffer.
func (d *Device) Buffer(vb *tricanvas.VertexBuffer) (tricanvas.Buffer, error) {
	if d.isClosed() {
		return nil, tricanvas.ErrClosed
	}
	if vb == nil {
		return nil, errors.New("gpu: nil vertex buffer")
	}
	if _, err := d.upload(vb); err != nil {
		return nil, err
	}
	return vb, nil
}

func (d *Device) upload(vb *tricanvas.VertexBuffer) (*wgpu.Buffer, error) {
	if buf, ok := d.buffers[vb]; ok {
		return buf, nil
	}
	data := vb.Bytes()
	buf, err := d.dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "tricanvas_vertices",
		Size:  uint64(len(data)),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create vertex buffer: %w", err)
	}
	if err := d.queue.WriteBuffer(buf, 0, data); err != nil {
		buf.Release()
		return nil, fmt.Errorf("gpu: upload vertices: %w", err)
	}
	d.buffers[vb] = buf
	return buf, nil
}

// Clear implements tricanvas.Device.
func (d *Device) Clear(opts tricanvas.ClearOptions) error {
	if d.isClosed() {
		return tricanvas.ErrClosed
	}
	c := opts.Color
	err := d.pass("tricanvas_clear", &wgpu.RenderPassDescriptor{
		Label: "tricanvas_clear",
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       d.colorView,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B), A: float64(c.A)},
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            d.depthView,
			DepthLoadOp:     gputypes.LoadOpClear,
			DepthStoreOp:    gputypes.StoreOpStore,
			DepthClearValue: opts.Depth,
		},
	}, nil)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.stats.Clears++
	d.mu.Unlock()
	return nil
}

// pass encodes one render pass, lets record fill it and submits it.
func (d *Device) pass(label string, desc *wgpu.RenderPassDescriptor, record func(*wgpu.RenderPassEncoder)) error {
	encoder, err := d.dev.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return fmt.Errorf("gpu: create command encoder: %w", err)
	}
	encoderConsumed := false
	defer func() {
		if !encoderConsumed {
			encoder.DiscardEncoding()
		}
	}()

	rp, err := encoder.BeginRenderPass(desc)
	if err != nil {
		return fmt.Errorf("gpu: begin render pass: %w", err)
	}
	rp.SetViewport(0, 0, float32(d.width), float32(d.height), 0, 1)
	if record != nil {
		record(rp)
	}
	if err := rp.End(); err != nil {
		return fmt.Errorf("gpu: end render pass: %w", err)
	}

	cmd, err := encoder.Finish()
	if err != nil {
		return fmt.Errorf("gpu: end encoding: %w", err)
	}
	encoderConsumed = true
	if _, err := d.queue.Submit(cmd); err != nil {
		return fmt.Errorf("gpu: submit: %w", err)
	}
	d.dirty = true
	return nil
}

// Frame implements tricanvas.Device.
func (d *Device) Frame(fn tricanvas.FrameFunc) func() {
	return d.slot.Set(fn)
}

// Step delivers one frame at time t (seconds) and, if the frame rendered
// anything, copies the color target back for Image.
func (d *Device) Step(t float64) (tricanvas.FrameSample, error) {
	d.frameMu.Lock()
	defer d.frameMu.Unlock()

	if d.isClosed() {
		return tricanvas.FrameSample{}, tricanvas.ErrClosed
	}
	fn, s := d.slot.Next(t, int(d.width), int(d.height))
	if fn == nil {
		return s, nil
	}
	d.mu.Lock()
	d.stats.Frames++
	d.mu.Unlock()

	fn(s)
	if !d.dirty {
		return s, nil
	}
	if err := d.readback(); err != nil {
		return s, err
	}
	return s, nil
}

// Resize recreates the render targets at width x height. Programs and
// buffers are kept.
func (d *Device) Resize(width, height int) error {
	d.frameMu.Lock()
	defer d.frameMu.Unlock()

	if width <= 0 || height <= 0 {
		return fmt.Errorf("gpu: invalid dimensions %dx%d", width, height)
	}
	if uint32(width) == d.width && uint32(height) == d.height {
		return nil
	}
	if err := d.dev.WaitIdle(); err != nil {
		tricanvas.Logger().Warn("gpu: wait idle before resize", "err", err)
	}
	d.releaseTargets()
	return d.createTargets(uint32(width), uint32(height))
}

// Image returns the color target as of the last Step. The image is reused
// by the next Step.
func (d *Device) Image() image.Image {
	return d.img
}

// Size returns the surface size in pixels.
func (d *Device) Size() (width, height int) {
	return int(d.width), int(d.height)
}

// Stats returns the operation counters.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Close implements tricanvas.Device. GPU resources are released; a device
// created by Open is released as well.
func (d *Device) Close() error {
	d.frameMu.Lock()
	defer d.frameMu.Unlock()
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return tricanvas.ErrClosed
	}
	d.closed = true
	d.slot.Reset()

	var err error
	if werr := d.dev.WaitIdle(); werr != nil {
		err = fmt.Errorf("gpu: wait idle: %w", werr)
	}
	for _, p := range d.programs {
		p.release()
	}
	d.programs = nil
	for _, buf := range d.buffers {
		buf.Release()
	}
	clear(d.buffers)
	d.releaseTargets()
	if d.release != nil {
		d.release()
		d.release = nil
	}
	return err
}

func (d *Device) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
