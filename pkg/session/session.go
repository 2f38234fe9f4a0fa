// Package session holds the interactive viewer parameters shared between the
// frame loop, the keyboard and the web control API.
package session

import (
	"sync"

	"github.com/google/uuid"
)

// Bounds for the interactive parameters.
const (
	MinThreshold     = 0
	MaxThreshold     = 255
	MinScale         = 1
	MaxScale         = 500
	DefaultThreshold = 100
	DefaultScale     = 50
)

// Controls is a snapshot of the interactive parameters.
type Controls struct {
	Threshold  int     `json:"threshold"`
	Scale      int     `json:"scale"` // percent
	RotateX    float64 `json:"rotate_x"`
	RotateY    float64 `json:"rotate_y"`
	RotateZ    float64 `json:"rotate_z"`
	TranslateX float64 `json:"translate_x"`
	TranslateY float64 `json:"translate_y"`
	Debug      bool    `json:"debug"`
}

// ControlsUpdate is a partial update. Nil fields are left unchanged.
type ControlsUpdate struct {
	Threshold  *int     `json:"threshold,omitempty"`
	Scale      *int     `json:"scale,omitempty"`
	RotateX    *float64 `json:"rotate_x,omitempty"`
	RotateY    *float64 `json:"rotate_y,omitempty"`
	RotateZ    *float64 `json:"rotate_z,omitempty"`
	TranslateX *float64 `json:"translate_x,omitempty"`
	TranslateY *float64 `json:"translate_y,omitempty"`
	Debug      *bool    `json:"debug,omitempty"`
}

// Session owns the controls for one viewer run. Values are never reset.
type Session struct {
	id string

	mu sync.RWMutex
	c  Controls
}

// New creates a session with the given initial threshold and scale, clamped
// to their bounds.
func New(threshold, scale int) *Session {
	return &Session{
		id: uuid.NewString(),
		c: Controls{
			Threshold: clamp(threshold, MinThreshold, MaxThreshold),
			Scale:     clamp(scale, MinScale, MaxScale),
		},
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Controls returns a copy of the current values.
func (s *Session) Controls() Controls {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.c
}

// Threshold returns the current binarization threshold.
func (s *Session) Threshold() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.c.Threshold
}

// AdjustThreshold changes the threshold by delta and returns the new value.
func (s *Session) AdjustThreshold(delta int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.Threshold = clamp(s.c.Threshold+delta, MinThreshold, MaxThreshold)
	return s.c.Threshold
}

// SetThreshold sets the threshold, clamped to [0, 255].
func (s *Session) SetThreshold(v int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.Threshold = clamp(v, MinThreshold, MaxThreshold)
	return s.c.Threshold
}

// AdjustScale changes the scale by delta and returns the new value.
func (s *Session) AdjustScale(delta int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.Scale = clamp(s.c.Scale+delta, MinScale, MaxScale)
	return s.c.Scale
}

// SetScale sets the scale, clamped to [1, 500].
func (s *Session) SetScale(v int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.Scale = clamp(v, MinScale, MaxScale)
	return s.c.Scale
}

// Rotate adds to the model rotation angles, in degrees.
func (s *Session) Rotate(dx, dy, dz float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.RotateX += dx
	s.c.RotateY += dy
	s.c.RotateZ += dz
}

// Translate adds to the model offset.
func (s *Session) Translate(dx, dy float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.TranslateX += dx
	s.c.TranslateY += dy
}

// ToggleDebug flips the debug flag and returns the new value.
func (s *Session) ToggleDebug() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.Debug = !s.c.Debug
	return s.c.Debug
}

// Apply sets every non-nil field of u and returns the resulting controls.
func (s *Session) Apply(u ControlsUpdate) Controls {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.Threshold != nil {
		s.c.Threshold = clamp(*u.Threshold, MinThreshold, MaxThreshold)
	}
	if u.Scale != nil {
		s.c.Scale = clamp(*u.Scale, MinScale, MaxScale)
	}
	if u.RotateX != nil {
		s.c.RotateX = *u.RotateX
	}
	if u.RotateY != nil {
		s.c.RotateY = *u.RotateY
	}
	if u.RotateZ != nil {
		s.c.RotateZ = *u.RotateZ
	}
	if u.TranslateX != nil {
		s.c.TranslateX = *u.TranslateX
	}
	if u.TranslateY != nil {
		s.c.TranslateY = *u.TranslateY
	}
	if u.Debug != nil {
		s.c.Debug = *u.Debug
	}
	return s.c
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
