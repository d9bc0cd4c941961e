package tricanvas

import (
	"errors"
	"fmt"
	"sync"
)

// State is the lifecycle state of a Host.
type State int

const (
	// StateUninitialized means no device is held.
	StateUninitialized State = iota

	// StateRunning means the device is open and the draw loop registered.
	StateRunning
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRunning:
		return "running"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Host owns one drawing surface and runs the triangle draw loop on it.
//
// Mount performs setup at most once per mount; calling it again while
// mounted does nothing. Unmount releases the device so that a host never
// holds more than one.
type Host struct {
	backend Backend

	mu     sync.Mutex
	state  State
	dev    Device
	buf    Buffer
	prog   Program
	loop   *DrawLoop
	cancel func()
}

// NewHost returns an unmounted host that acquires its surface from b.
func NewHost(b Backend) *Host {
	return &Host{backend: b}
}

// Mount acquires a device, uploads the triangle, compiles the program and
// registers the draw loop. Setup errors are returned to the caller; the
// host stays unmounted and any acquired device is closed.
func (h *Host) Mount() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == StateRunning {
		return nil
	}
	if h.backend == nil {
		return fmt.Errorf("tricanvas: mount: %w", ErrNoDevice)
	}

	dev, err := h.backend.Open()
	if err != nil {
		return fmt.Errorf("tricanvas: mount: %w", err)
	}
	if err := h.setup(dev); err != nil {
		if cerr := dev.Close(); cerr != nil {
			Logger().Warn("tricanvas: close after failed mount", "err", cerr)
		}
		return fmt.Errorf("tricanvas: mount: %w", err)
	}

	h.dev = dev
	h.cancel = dev.Frame(h.loop.Func())
	h.state = StateRunning
	Logger().Info("tricanvas: mounted")
	return nil
}

func (h *Host) setup(dev Device) error {
	vb, err := NewVertexBuffer(FullscreenTriangle())
	if err != nil {
		return err
	}
	buf, err := dev.Buffer(vb)
	if err != nil {
		return fmt.Errorf("upload vertices: %w", err)
	}
	prog, err := dev.Compile(TriangleProgram(vb))
	if err != nil {
		return fmt.Errorf("compile program: %w", err)
	}
	Logger().Debug("tricanvas: setup complete", "vertices", buf.Len())

	h.buf = buf
	h.prog = prog
	h.loop = NewDrawLoop(dev, prog)
	return nil
}

// Unmount stops the draw loop and closes the device. Unmounting an
// unmounted host is a no-op.
func (h *Host) Unmount() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != StateRunning {
		return nil
	}
	if h.cancel != nil {
		h.cancel()
	}
	err := h.dev.Close()
	if errors.Is(err, ErrClosed) {
		err = nil
	}

	h.dev, h.buf, h.prog, h.loop, h.cancel = nil, nil, nil, nil, nil
	h.state = StateUninitialized
	Logger().Info("tricanvas: unmounted")
	if err != nil {
		return fmt.Errorf("tricanvas: unmount: %w", err)
	}
	return nil
}

// State reports the current lifecycle state.
func (h *Host) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Device returns the mounted device, or nil when unmounted.
func (h *Host) Device() Device {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dev
}
