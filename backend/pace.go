// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package backend

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/gogpu/tricanvas"
)

// Stepper is a device that renders frames on demand.
type Stepper interface {
	// Step delivers one frame at time t (seconds).
	Step(t float64) (tricanvas.FrameSample, error)

	// Image returns the color target after the last frame.
	Image() image.Image
}

// Pace drives s with cfg's timing. With a positive cfg.Step frames use
// synthetic time and run back to back; otherwise they are paced at cfg.FPS
// against the wall clock. Pace returns nil when cfg.Frames frames have been
// rendered and ctx.Err() when ctx is cancelled first. Errors are prefixed
// with name.
func Pace(ctx context.Context, name string, cfg Config, s Stepper) error {
	fps := cfg.FPS
	if fps <= 0 {
		fps = 60
	}
	var ticker *time.Ticker
	if cfg.Step <= 0 {
		ticker = time.NewTicker(time.Second / time.Duration(fps))
		defer ticker.Stop()
	}

	start := time.Now()
	for n := 0; cfg.Frames <= 0 || n < cfg.Frames; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		t := cfg.Start + float64(n)*cfg.Step
		if ticker != nil {
			t = cfg.Start + time.Since(start).Seconds()
		}
		sample, err := s.Step(t)
		if err != nil {
			return fmt.Errorf("%s: frame %d: %w", name, n, err)
		}
		if cfg.AfterFrame != nil {
			if err := cfg.AfterFrame(sample, s.Image()); err != nil {
				return fmt.Errorf("%s: frame %d: %w", name, n, err)
			}
		}

		if ticker != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
	}
	return nil
}
