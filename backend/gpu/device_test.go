// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"image"
	"math"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"

	"github.com/gogpu/tricanvas"
	"github.com/gogpu/tricanvas/backend"
)

const testW, testH = 64, 48

// openTestDevice returns a Device on whatever adapter is available,
// skipping when there is none, and whether the adapter is a hardware one.
func openTestDevice(t *testing.T) (*Device, bool) {
	t.Helper()

	inst, err := wgpu.CreateInstance(nil)
	if err != nil {
		t.Skipf("cannot create instance: %v", err)
	}
	adapter, err := inst.RequestAdapter(nil)
	if err != nil {
		inst.Release()
		t.Skipf("cannot request adapter: %v", err)
	}
	dev, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		inst.Release()
		t.Skipf("cannot request device: %v", err)
	}
	if dev.Queue() == nil {
		dev.Release()
		adapter.Release()
		inst.Release()
		t.Skip("skipping: device has no HAL integration")
	}

	d, err := NewDevice(dev, testW, testH)
	if err != nil {
		t.Fatalf("NewDevice() error = %v", err)
	}
	t.Cleanup(func() {
		_ = d.Close()
		dev.Release()
		adapter.Release()
		inst.Release()
	})
	return d, adapter.Info().DeviceType != gputypes.DeviceTypeCPU
}

func rgbaAt(img image.Image, x, y int) (r, g, b, a uint32) {
	r, g, b, a = img.At(x, y).RGBA()
	return r >> 8, g >> 8, b >> 8, a >> 8
}

func TestUniformBytes(t *testing.T) {
	got := uniformBytes(tricanvas.Color{R: 1, G: 0.5, B: 0, A: 0.25})
	if len(got) != uniformSize {
		t.Fatalf("len = %d, want %d", len(got), uniformSize)
	}
	for i, want := range []float32{1, 0.5, 0, 0.25} {
		if f := math.Float32frombits(binary.LittleEndian.Uint32(got[i*4:])); f != want {
			t.Errorf("component %d = %v, want %v", i, f, want)
		}
	}
}

func TestAlignedRow(t *testing.T) {
	tests := map[uint32]uint32{1: 256, 64: 256, 65: 512, 100: 512, 128: 512}
	for w, want := range tests {
		if got := alignedRow(w); got != want {
			t.Errorf("alignedRow(%d) = %d, want %d", w, got, want)
		}
	}
}

func TestUnpad(t *testing.T) {
	src := []byte{1, 2, 9, 9, 3, 4, 9, 9}
	dst := make([]byte, 4)
	unpad(dst, src, 2, 4, 2)
	if !bytes.Equal(dst, []byte{1, 2, 3, 4}) {
		t.Errorf("unpad = %v", dst)
	}

	tight := []byte{5, 6, 7, 8}
	unpad(dst, tight, 2, 2, 2)
	if !bytes.Equal(dst, tight) {
		t.Errorf("unpad without padding = %v", dst)
	}
}

type fakeProvider struct {
	device gpucontext.Device
	info   gpucontext.AdapterInfo
}

func (f fakeProvider) Device() gpucontext.Device { return f.device }
func (f fakeProvider) Queue() gpucontext.Queue { return nil }
func (f fakeProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }
func (f fakeProvider) Adapter() gpucontext.Adapter { return nil }
func (f fakeProvider) AdapterInfo() gpucontext.AdapterInfo { return f.info }

func TestFromProviderRejects(t *testing.T) {
	tests := []struct {
		name     string
		provider gpucontext.DeviceProvider
	}{
		{"nil provider", nil},
		{"software adapter", fakeProvider{info: gpucontext.AdapterInfo{Name: "Software Renderer", Type: gpucontext.AdapterTypeSoftware}}},
		{"foreign device", fakeProvider{device: struct{}{}, info: gpucontext.AdapterInfo{Type: gpucontext.AdapterTypeDiscrete}}},
		{"no device", fakeProvider{info: gpucontext.AdapterInfo{Type: gpucontext.AdapterTypeDiscrete}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromProvider(tt.provider); !errors.Is(err, tricanvas.ErrNoDevice) {
				t.Errorf("FromProvider() = %v, want ErrNoDevice", err)
			}
		})
	}
}

func TestNewDeviceInvalid(t *testing.T) {
	if _, err := NewDevice(nil, 8, 8); !errors.Is(err, tricanvas.ErrNoDevice) {
		t.Errorf("NewDevice(nil) = %v, want ErrNoDevice", err)
	}
	if _, err := NewDevice(nil, 0, 8); !errors.Is(err, tricanvas.ErrNoDevice) {
		t.Errorf("NewDevice(0x8) = %v, want ErrNoDevice", err)
	}
}

func TestBackendRegistered(t *testing.T) {
	b, err := backend.Get(backend.BackendGPU, backend.Config{Width: 4, Height: 4})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if b.Name() != backend.BackendGPU {
		t.Errorf("Name() = %q", b.Name())
	}
	if err := b.Run(context.Background()); !errors.Is(err, backend.ErrNotMounted) {
		t.Errorf("Run() before Open = %v, want ErrNotMounted", err)
	}
}

func TestDeviceClearReadback(t *testing.T) {
	d, _ := openTestDevice(t)

	d.Frame(func(tricanvas.FrameSample) {
		if err := d.Clear(tricanvas.ClearOptions{Color: tricanvas.Color{R: 1, A: 1}, Depth: 1}); err != nil {
			t.Errorf("Clear() error = %v", err)
		}
	})
	s, err := d.Step(0)
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if s.Width != testW || s.Height != testH {
		t.Errorf("sample = %+v", s)
	}
	if r, g, b, a := rgbaAt(d.Image(), testW/2, testH/2); r != 255 || g != 0 || b != 0 || a != 255 {
		t.Errorf("pixel = (%d, %d, %d, %d), want red", r, g, b, a)
	}
	if st := d.Stats(); st.Clears != 1 || st.Readbacks != 1 {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestDeviceDrawsCompiledProgram(t *testing.T) {
	vb, err := tricanvas.NewVertexBuffer(tricanvas.FullscreenTriangle())
	if err != nil {
		t.Fatal(err)
	}
	green := tricanvas.TriangleProgram(vb)
	green.Fragment.Source = `@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(0.0, 1.0, 0.0, 1.0);
}
`
	tests := []struct {
		name       string
		desc       tricanvas.ProgramDescriptor
		r, g, b, a uint32
	}{
		{"uniform color", tricanvas.TriangleProgram(vb), 255, 0, 255, 255},
		{"constant fragment", green, 0, 255, 0, 255},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, hardware := openTestDevice(t)
			if !hardware {
				t.Skip("software adapter does not rasterize")
			}
			if _, err := d.Buffer(vb); err != nil {
				t.Fatalf("Buffer() error = %v", err)
			}
			p, err := d.Compile(tt.desc)
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			d.Frame(func(tricanvas.FrameSample) {
				if err := d.Clear(tricanvas.DefaultClear); err != nil {
					t.Errorf("Clear() error = %v", err)
				}
				if err := p.Draw(tricanvas.Uniforms{tricanvas.UniformColor: tricanvas.Color{R: 1, B: 1, A: 1}}); err != nil {
					t.Errorf("Draw() error = %v", err)
				}
			})
			if _, err := d.Step(0); err != nil {
				t.Fatalf("Step() error = %v", err)
			}

			img := d.Image()
			if r, g, b, a := rgbaAt(img, testW*3/4, testH*3/4); r != tt.r || g != tt.g || b != tt.b || a != tt.a {
				t.Errorf("pixel below diagonal = (%d, %d, %d, %d), want (%d, %d, %d, %d)", r, g, b, a, tt.r, tt.g, tt.b, tt.a)
			}
			if _, _, _, a := rgbaAt(img, testW/4, testH/4); a != 0 {
				t.Errorf("pixel above diagonal alpha = %d, want 0", a)
			}
		})
	}
}

func TestDeviceMissingUniform(t *testing.T) {
	d, _ := openTestDevice(t)
	vb, _ := tricanvas.NewVertexBuffer(tricanvas.FullscreenTriangle())
	p, err := d.Compile(tricanvas.TriangleProgram(vb))
	if err != nil {
		t.Skipf("Compile() on this adapter: %v", err)
	}
	if err := p.Draw(tricanvas.Uniforms{}); err == nil {
		t.Error("Draw() without color uniform succeeded")
	}
}

func TestDeviceResizeAndClose(t *testing.T) {
	d, _ := openTestDevice(t)
	if err := d.Resize(100, 30); err != nil {
		t.Fatalf("Resize() error = %v", err)
	}
	if w, h := d.Size(); w != 100 || h != 30 {
		t.Errorf("Size() = %dx%d", w, h)
	}
	if b := d.Image().Bounds(); b.Dx() != 100 || b.Dy() != 30 {
		t.Errorf("Image() bounds = %v", b)
	}

	if err := d.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
	if _, err := d.Step(0); !errors.Is(err, tricanvas.ErrClosed) {
		t.Errorf("Step() after Close = %v, want ErrClosed", err)
	}
	if err := d.Close(); !errors.Is(err, tricanvas.ErrClosed) {
		t.Errorf("second Close() = %v, want ErrClosed", err)
	}
}
