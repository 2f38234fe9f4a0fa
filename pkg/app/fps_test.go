package app

import (
	"testing"
	"time"
)

func TestFPSCounter(t *testing.T) {
	now := time.Unix(1000, 0)
	f := newFPSCounter(func() time.Time { return now })

	if got := f.Rate(); got != 0 {
		t.Errorf("Rate at start = %v, want 0", got)
	}

	for i := 0; i < 30; i++ {
		f.Tick()
	}
	now = now.Add(2 * time.Second)
	if got := f.Rate(); got != 15 {
		t.Errorf("Rate = %v, want 15", got)
	}
	if got := f.Frames(); got != 30 {
		t.Errorf("Frames = %d, want 30", got)
	}

	f.Reset()
	if f.Frames() != 0 || f.Rate() != 0 {
		t.Errorf("after Reset: frames=%d rate=%v", f.Frames(), f.Rate())
	}
}
