package camera

import "fmt"

// Preset is a named capture size and rate.
type Preset struct {
	Name      string `json:"name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Framerate int    `json:"framerate"`
	Note      string `json:"note,omitempty"`
}

// Preset names.
const (
	PresetDefault = "default"
	PresetVGA     = "vga"
	Preset720p    = "720p"
	Preset1080p   = "1080p"
)

// Larger frames find smaller or more distant markers at a higher detection
// cost per frame.
var presets = []Preset{
	{Name: PresetDefault, Width: 640, Height: 480, Framerate: 30, Note: "matches the sample calibration"},
	{Name: PresetVGA, Width: 640, Height: 480, Framerate: 30},
	{Name: Preset720p, Width: 1280, Height: 720, Framerate: 30},
	{Name: Preset1080p, Width: 1920, Height: 1080, Framerate: 15, Note: "detection is noticeably slower"},
}

// Presets returns all presets in display order.
func Presets() []Preset {
	return append([]Preset(nil), presets...)
}

// PresetNames returns the preset names in display order.
func PresetNames() []string {
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.Name
	}
	return names
}

// LookupPreset finds a preset by name. Empty selects the default.
func LookupPreset(name string) (Preset, error) {
	if name == "" {
		name = PresetDefault
	}
	for _, p := range presets {
		if p.Name == name {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("unknown camera preset %q", name)
}

// Apply returns cfg with the preset's size and rate. Device and field of
// view are kept.
func (p Preset) Apply(cfg Config) Config {
	cfg.Width, cfg.Height, cfg.Framerate = p.Width, p.Height, p.Framerate
	return cfg
}
