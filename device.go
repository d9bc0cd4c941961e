package tricanvas

import "errors"

// Common errors returned by backends.
var (
	// ErrNoDevice is returned when the environment cannot provide a
	// graphics context.
	ErrNoDevice = errors.New("tricanvas: no graphics device available")

	// ErrClosed is returned by operations on a closed Device.
	ErrClosed = errors.New("tricanvas: device is closed")
)

// FrameSample is the per-frame input supplied by a backend's frame pacer.
type FrameSample struct {
	// Time is the elapsed time in seconds since the frame loop started.
	Time float64

	// Tick counts frames delivered since registration, starting at 0.
	Tick uint64

	// Width and Height are the surface size in pixels for this frame.
	Width, Height int
}

// FrameFunc is invoked once per frame on the backend's render goroutine.
type FrameFunc func(FrameSample)

// ClearOptions selects the values written by Device.Clear.
type ClearOptions struct {
	Color Color
	Depth float32
}

// Uniforms carries dynamic per-draw parameters keyed by uniform name.
type Uniforms map[string]Color

// Backend acquires a graphics context bound to a drawing surface.
type Backend interface {
	Open() (Device, error)
}

// Device is a graphics context bound to one drawing surface.
//
// All methods except Frame's cancel function and Close are called from the
// frame goroutine or before the first frame is delivered.
type Device interface {
	// Buffer uploads vb and returns a handle that lives as long as the device.
	Buffer(vb *VertexBuffer) (Buffer, error)

	// Compile builds a draw command from desc.
	Compile(desc ProgramDescriptor) (Program, error)

	// Clear resets the color and depth targets.
	Clear(opts ClearOptions) error

	// Frame registers fn as the per-frame callback, replacing any previous
	// one. The returned function stops further invocations.
	Frame(fn FrameFunc) (cancel func())

	// Close releases the context. Further calls return ErrClosed.
	Close() error
}

// Buffer is a device-resident vertex buffer.
type Buffer interface {
	Len() int
}

// Program is a compiled draw command.
type Program interface {
	// Draw issues one draw call with the given uniform values.
	Draw(u Uniforms) error
}
