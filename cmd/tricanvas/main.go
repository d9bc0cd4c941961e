// Command tricanvas shows a color-cycling triangle.
//
// By default it opens a window. With -backend=software (CPU) or -backend=gpu
// (hardware adapter) it renders headless and can write frames to disk:
//
//	tricanvas -backend software -frames 60 -step 100 -output frame_%03d.png
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gogpu/tricanvas"
	"github.com/gogpu/tricanvas/backend"
	_ "github.com/gogpu/tricanvas/backend/gpu"
	"github.com/gogpu/tricanvas/backend/software"
	_ "github.com/gogpu/tricanvas/integration/ebitenhost"
	_ "github.com/gogpu/tricanvas/integration/gogpuwindow"
)

// headless lists the backends that render offscreen and report frames.
var headless = []string{backend.BackendSoftware, backend.BackendGPU}

func main() {
	var (
		name    = flag.String("backend", "", "rendering backend: "+strings.Join(backend.Available(), ", ")+" (default: best available)")
		width   = flag.Int("width", 800, "surface width")
		height  = flag.Int("height", 600, "surface height")
		title   = flag.String("title", "tricanvas", "window title")
		fps     = flag.Int("fps", 60, "frame rate for self-paced backends")
		frames  = flag.Int("frames", 0, "stop after N frames (headless backends, 0 = run until interrupted)")
		start   = flag.Float64("start", 0, "time of the first frame in seconds (headless backends with -step)")
		step    = flag.Float64("step", 0, "fixed time step between frames in seconds (headless backends, 0 = wall clock)")
		output  = flag.String("output", "", "frame output pattern with one %d verb, e.g. frame_%03d.png (headless backends)")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	tricanvas.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := backend.Config{
		Width:  *width,
		Height: *height,
		Title:  *title,
		FPS:    *fps,
		Frames: *frames,
		Start:  *start,
		Step:   *step,
	}
	if *output != "" {
		if !slices.Contains(headless, *name) {
			log.Fatalf("-output requires -backend=%s", strings.Join(headless, " or -backend="))
		}
		if ext := strings.TrimPrefix(filepath.Ext(*output), "."); !software.Supported(ext) {
			log.Fatalf("-output: unsupported image format %q", ext)
		}
		cfg.AfterFrame = frameWriter(*output)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, *name, cfg); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, name string, cfg backend.Config) error {
	var (
		b   backend.RenderBackend
		err error
	)
	if name == "" {
		b, err = backend.Default(cfg)
	} else {
		b, err = backend.Get(name, cfg)
	}
	if err != nil {
		return err
	}

	h := tricanvas.NewHost(b)
	if err := h.Mount(); err != nil {
		return err
	}
	defer func() {
		if err := h.Unmount(); err != nil {
			tricanvas.Logger().Warn("unmount", "err", err)
		}
	}()

	tricanvas.Logger().Info("running", "backend", b.Name())
	return b.Run(ctx)
}

func frameWriter(pattern string) func(tricanvas.FrameSample, image.Image) error {
	return func(s tricanvas.FrameSample, img image.Image) error {
		path := fmt.Sprintf(pattern, s.Tick)
		if err := software.Save(path, img); err != nil {
			return err
		}
		tricanvas.Logger().Debug("frame saved", "path", path, "time", s.Time)
		return nil
	}
}
