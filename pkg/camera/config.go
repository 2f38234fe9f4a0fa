// Package camera provides the capture device and its runtime-adjustable settings.
package camera

import "strconv"

// Config holds the capture configuration.
// Width, Height and Framerate can be changed via the camera API at runtime.
type Config struct {
	// Device is a camera index ("0") or a video file path.
	Device string `json:"device"`

	// === Resolution ===
	Width     int `json:"width"`     // Frame width in pixels
	Height    int `json:"height"`    // Frame height in pixels
	Framerate int `json:"framerate"` // Target FPS

	// FOVDegrees is the horizontal field of view used when no intrinsics
	// file is configured.
	FOVDegrees float64 `json:"fov_degrees"`
}

// Capture limits accepted by Validate.
const (
	MaxWidth     = 3840
	MaxHeight    = 2160
	MaxFramerate = 120
)

// DefaultConfig returns 640x480 at 30 FPS, the size ARToolKit sample
// parameters are calibrated for.
func DefaultConfig() Config {
	return Config{
		Device:     "0",
		Width:      640,
		Height:     480,
		Framerate:  30,
		FOVDegrees: 60,
	}
}

// IsFile reports whether Device names a video file rather than a camera index.
func (c *Config) IsFile() bool {
	_, err := strconv.Atoi(c.Device)
	return err != nil
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Device == "" {
		errors = append(errors, "device is required")
	}
	if c.Width < 160 || c.Width > MaxWidth {
		errors = append(errors, "width must be between 160 and 3840")
	}
	if c.Height < 120 || c.Height > MaxHeight {
		errors = append(errors, "height must be between 120 and 2160")
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errors = append(errors, "framerate must be between 1 and 120")
	}
	if c.FOVDegrees <= 0 || c.FOVDegrees >= 180 {
		errors = append(errors, "fov_degrees must be between 0 and 180")
	}

	return errors
}
