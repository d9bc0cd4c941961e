package tricanvas

import "sync"

// FrameSlot holds the single frame callback of a device and numbers the
// frames delivered to it. It is safe for concurrent use.
type FrameSlot struct {
	mu   sync.Mutex
	fn   FrameFunc
	gen  uint64
	tick uint64
}

// Set registers fn, replacing any previous callback, and restarts the tick
// count. The returned cancel removes fn but leaves a newer registration
// in place.
func (s *FrameSlot) Set(fn FrameFunc) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	gen := s.gen
	s.fn = fn
	s.tick = 0
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gen == gen {
			s.fn = nil
		}
	}
}

// Next returns the callback and sample for a frame at time t on a
// width x height surface. The tick advances only when a callback is
// registered; fn is nil otherwise.
func (s *FrameSlot) Next(t float64, width, height int) (fn FrameFunc, sample FrameSample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sample = FrameSample{Time: t, Tick: s.tick, Width: width, Height: height}
	if s.fn != nil {
		s.tick++
	}
	return s.fn, sample
}

// Reset drops the callback.
func (s *FrameSlot) Reset() {
	s.mu.Lock()
	s.fn = nil
	s.mu.Unlock()
}
