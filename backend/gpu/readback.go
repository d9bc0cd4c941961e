// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"context"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"

	"github.com/gogpu/tricanvas"
)

// copyPitchAlignment is the row alignment required for texture to buffer
// copies.
const copyPitchAlignment = 256

// alignedRow returns the padded byte length of one RGBA8 row of width w.
func alignedRow(w uint32) uint32 {
	return (w*4 + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
}

// readback copies the color target into d.img.
func (d *Device) readback() error {
	w, h := d.width, d.height
	pitch := alignedRow(w)
	size := uint64(pitch) * uint64(h)

	staging, err := d.dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "tricanvas_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpu: create staging buffer: %w", err)
	}
	defer staging.Release()

	encoder, err := d.dev.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "tricanvas_readback"})
	if err != nil {
		return fmt.Errorf("gpu: create command encoder: %w", err)
	}
	encoderConsumed := false
	defer func() {
		if !encoderConsumed {
			encoder.DiscardEncoding()
		}
	}()

	encoder.TransitionTextures([]wgpu.TextureBarrier{{
		Texture: d.color,
		Usage: wgpu.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(d.color, staging, []wgpu.BufferTextureCopy{{
		BufferLayout: wgpu.ImageDataLayout{Offset: 0, BytesPerRow: pitch, RowsPerImage: h},
		TextureBase:  wgpu.ImageCopyTexture{Texture: d.color, MipLevel: 0},
		Size:         wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]wgpu.TextureBarrier{{
		Texture: d.color,
		Usage: wgpu.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmd, err := encoder.Finish()
	if err != nil {
		return fmt.Errorf("gpu: end encoding: %w", err)
	}
	encoderConsumed = true
	if _, err := d.queue.Submit(cmd); err != nil {
		return fmt.Errorf("gpu: submit readback: %w", err)
	}

	if err := staging.Map(context.Background(), wgpu.MapModeRead, 0, size); err != nil {
		return fmt.Errorf("gpu: map staging: %w", err)
	}
	rng, err := staging.MappedRange(0, size)
	if err != nil {
		if uerr := staging.Unmap(); uerr != nil {
			tricanvas.Logger().Warn("gpu: unmap failed", "err", uerr)
		}
		return fmt.Errorf("gpu: mapped range: %w", err)
	}
	unpad(d.img.Pix, rng.Bytes(), int(w)*4, int(pitch), int(h))
	if err := staging.Unmap(); err != nil {
		tricanvas.Logger().Warn("gpu: unmap failed", "err", err)
	}

	d.dirty = false
	d.mu.Lock()
	d.stats.Readbacks++
	d.mu.Unlock()
	return nil
}

// unpad copies rows of length row from src, whose rows are pitch bytes
// apart, into the tightly packed dst.
func unpad(dst, src []byte, row, pitch, rows int) {
	if row == pitch {
		copy(dst, src[:row*rows])
		return
	}
	for y := range rows {
		copy(dst[y*row:(y+1)*row], src[y*pitch:y*pitch+row])
	}
}
