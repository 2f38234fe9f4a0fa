package app

import (
	"sync"
	"time"
)

// FPSCounter measures the average frame rate since the last reset.
type FPSCounter struct {
	mu     sync.Mutex
	start  time.Time
	frames uint64
	now    func() time.Time
}

// NewFPSCounter creates a counter starting now.
func NewFPSCounter() *FPSCounter {
	return newFPSCounter(time.Now)
}

func newFPSCounter(now func() time.Time) *FPSCounter {
	return &FPSCounter{start: now(), now: now}
}

// Tick records one frame.
func (f *FPSCounter) Tick() {
	f.mu.Lock()
	f.frames++
	f.mu.Unlock()
}

// Rate returns frames per second since the last reset.
func (f *FPSCounter) Rate() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	elapsed := f.now().Sub(f.start).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(f.frames) / elapsed
}

// Frames returns the frame count since the last reset.
func (f *FPSCounter) Frames() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames
}

// Reset restarts the measurement.
func (f *FPSCounter) Reset() {
	f.mu.Lock()
	f.start = f.now()
	f.frames = 0
	f.mu.Unlock()
}
