package camera

import (
	"errors"
	"strings"
	"testing"
	"time"

	"gocv.io/x/gocv"
)

func TestPresetsValid(t *testing.T) {
	for _, name := range PresetNames() {
		p, err := LookupPreset(name)
		if err != nil {
			t.Fatalf("LookupPreset(%q): %v", name, err)
		}
		cfg := p.Apply(DefaultConfig())
		if errs := cfg.Validate(); len(errs) > 0 {
			t.Errorf("preset %q invalid: %v", name, errs)
		}
	}
	if _, err := LookupPreset("4k"); err == nil {
		t.Error("expected error for unknown preset")
	}
	if p, err := LookupPreset(""); err != nil || p.Name != PresetDefault {
		t.Errorf("empty name = %v, %v, want default", p.Name, err)
	}
}

func TestPresetApplyKeepsDevice(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Device = "clip.mp4"
	cfg.FOVDegrees = 75

	p, _ := LookupPreset(Preset1080p)
	got := p.Apply(cfg)
	want := Config{Device: "clip.mp4", Width: 1920, Height: 1080, Framerate: 15, FOVDegrees: 75}
	if got != want {
		t.Errorf("Apply = %+v, want %+v", got, want)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width = 10
	cfg.Framerate = 0
	cfg.Device = ""

	errs := cfg.Validate()
	if len(errs) != 3 {
		t.Fatalf("got %d errors, want 3: %v", len(errs), errs)
	}
	if !strings.Contains(strings.Join(errs, ";"), "width") {
		t.Errorf("errors %v should mention width", errs)
	}
}

func TestIsFile(t *testing.T) {
	tests := []struct {
		device string
		want   bool
	}{
		{"0", false},
		{"2", false},
		{"testdata/markers.mp4", true},
	}
	for _, tt := range tests {
		cfg := Config{Device: tt.device}
		if got := cfg.IsFile(); got != tt.want {
			t.Errorf("IsFile(%q) = %v, want %v", tt.device, got, tt.want)
		}
	}
}

func intp(v int) *int       { return &v }
func strp(v string) *string { return &v }

func TestManagerApply(t *testing.T) {
	m := NewManager(DefaultConfig())

	var applied []Config
	m.OnConfigChange = func(cfg Config) error {
		applied = append(applied, cfg)
		return nil
	}

	got, err := m.Apply(Update{Preset: strp(Preset720p), Framerate: intp(25)})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.Width != 1280 || got.Height != 720 || got.Framerate != 25 {
		t.Errorf("config = %+v, want 1280x720@25", got)
	}
	if len(applied) != 1 || applied[0] != got {
		t.Errorf("callback got %+v, want [%+v]", applied, got)
	}

	if _, err := m.Apply(Update{Preset: strp("nope")}); err == nil {
		t.Error("expected error for unknown preset")
	}
	if _, err := m.Apply(Update{Width: intp(5)}); err == nil {
		t.Error("expected validation error")
	}
	if m.Config().Width != 1280 {
		t.Error("rejected update must not change config")
	}

	// No-op updates do not reach the source.
	if _, err := m.Apply(Update{}); err != nil {
		t.Fatalf("empty Apply: %v", err)
	}
	if len(applied) != 1 {
		t.Errorf("callback ran %d times, want 1", len(applied))
	}

	changed := m.Config()
	changed.Device = "1"
	if err := m.Set(changed); !errors.Is(err, ErrDeviceChange) {
		t.Errorf("Set device = %v, want ErrDeviceChange", err)
	}
}

func TestManagerCallbackError(t *testing.T) {
	m := NewManager(DefaultConfig())
	m.OnConfigChange = func(Config) error { return errors.New("camera closed") }

	if _, err := m.Apply(Update{Preset: strp(Preset720p)}); err == nil {
		t.Fatal("expected callback error")
	}
	if m.Config() != DefaultConfig() {
		t.Errorf("config changed after failed apply: %+v", m.Config())
	}
}

func TestOpenMissingFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Device = "/nonexistent/markers.mp4"
	if s, err := Open(cfg); err == nil {
		s.Close()
		t.Error("expected error opening a missing file")
	}
}

func TestTryGetFrameOnlyNewFrames(t *testing.T) {
	s := &Source{slot: gocv.NewMat()}
	defer s.slot.Close()

	if _, ok := s.TryGetFrame(); ok {
		t.Fatal("no frame stored yet")
	}

	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()

	s.store(frame)
	got, ok := s.TryGetFrame()
	if !ok {
		t.Fatal("expected a frame")
	}
	if got.Rows() != 48 || got.Cols() != 64 {
		t.Errorf("frame %dx%d, want 64x48", got.Cols(), got.Rows())
	}
	got.Close()

	if _, ok := s.TryGetFrame(); ok {
		t.Error("same frame must not be returned twice")
	}

	s.store(frame)
	s.store(frame)
	if got, ok := s.TryGetFrame(); !ok {
		t.Error("expected the newest frame")
	} else {
		got.Close()
	}
	if _, ok := s.TryGetFrame(); ok {
		t.Error("older frames are dropped, not queued")
	}
}

func TestPlaybackIntervalFollowsReconfigure(t *testing.T) {
	s := &Source{cfg: Config{Device: "clip.mp4", Width: 640, Height: 480, Framerate: 25}}
	if got := s.playbackInterval(); got != 40*time.Millisecond {
		t.Fatalf("interval = %v, want 40ms", got)
	}

	s.record(Config{Device: "clip.mp4", Width: 640, Height: 480, Framerate: 10}, 640, 480)
	if got := s.playbackInterval(); got != 100*time.Millisecond {
		t.Errorf("interval after reconfigure = %v, want 100ms", got)
	}

	s.record(Config{Device: "clip.mp4", Width: 640, Height: 480}, 640, 480)
	if got := s.playbackInterval(); got != 0 {
		t.Errorf("interval without framerate = %v, want 0", got)
	}

	cam := &Source{cfg: Config{Device: "0", Framerate: 30}}
	if got := cam.playbackInterval(); got != 0 {
		t.Errorf("camera interval = %v, want 0", got)
	}
}
