package tricanvas

import "testing"

func TestFrameSlot(t *testing.T) {
	var s FrameSlot
	if fn, _ := s.Next(0, 1, 1); fn != nil {
		t.Fatal("Next() on empty slot returned a callback")
	}

	calls := 0
	cancel := s.Set(func(FrameSample) { calls++ })
	for i := range 3 {
		fn, sample := s.Next(float64(i), 4, 2)
		if fn == nil {
			t.Fatalf("frame %d: no callback", i)
		}
		if sample.Tick != uint64(i) || sample.Width != 4 || sample.Height != 2 {
			t.Errorf("frame %d: sample = %+v", i, sample)
		}
		fn(sample)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}

	// A newer registration restarts the tick and survives a stale cancel.
	s.Set(func(FrameSample) {})
	cancel()
	fn, sample := s.Next(9, 1, 1)
	if fn == nil || sample.Tick != 0 {
		t.Errorf("after re-register: fn nil = %v, tick = %d", fn == nil, sample.Tick)
	}

	s.Reset()
	if fn, _ := s.Next(10, 1, 1); fn != nil {
		t.Error("Next() after Reset returned a callback")
	}
}
