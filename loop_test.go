package tricanvas

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestDrawLoopRender(t *testing.T) {
	dev := &recorder{backend: &fakeBackend{}}
	l := NewDrawLoop(dev, recordedProgram{dev})

	if err := l.Render(FrameSample{Time: 1000}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if len(dev.calls) != 2 || dev.calls[0] != "clear" || dev.calls[1] != "draw" {
		t.Fatalf("calls = %v, want [clear draw]", dev.calls)
	}
	got := dev.draws[0][UniformColor]
	if !approx(got.R, 0.5403023) || !approx(got.G, 0.7173561) || !approx(got.B, -0.9899925) || got.A != 1 {
		t.Errorf("color = %+v", got)
	}
}

func TestDefaultClearIsConstant(t *testing.T) {
	if DefaultClear.Color != (Color{}) || DefaultClear.Depth != 1 {
		t.Errorf("DefaultClear = %+v", DefaultClear)
	}
	dev := &recorder{backend: &fakeBackend{}}
	l := NewDrawLoop(dev, recordedProgram{dev})
	for _, ts := range []float64{0, 1, 1e3, 1e6} {
		_ = l.Render(FrameSample{Time: ts})
	}
	for i, c := range dev.clears {
		if c != (ClearOptions{Color: Transparent, Depth: 1}) {
			t.Errorf("clear %d = %+v", i, c)
		}
	}
}

func TestDrawLoopFuncLogsErrors(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	dev := &recorder{backend: &fakeBackend{}, drawErr: errors.New("lost context")}
	fn := NewDrawLoop(dev, recordedProgram{dev}).Func()
	fn(FrameSample{Tick: 3})
	fn(FrameSample{Tick: 4})

	if len(dev.draws) != 2 {
		t.Errorf("draws = %d, want 2 (loop keeps running)", len(dev.draws))
	}
	if !strings.Contains(buf.String(), "lost context") {
		t.Errorf("log output missing error: %s", buf.String())
	}
}
