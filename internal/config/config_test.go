package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "Data/object_data.yaml", cfg.Objects)
	assert.Equal(t, "Data/camera_para.yaml", cfg.Intrinsics)
	assert.Equal(t, "0", cfg.Camera.Device)
	assert.Equal(t, "default", cfg.Camera.Preset)
	assert.Equal(t, 60.0, cfg.Camera.FOVDegrees)
	assert.Equal(t, "4x4_50", cfg.Detector.Dictionary)
	assert.Equal(t, 10*time.Millisecond, cfg.Loop.MinInterval)
	assert.True(t, cfg.Render.Window)
	assert.Equal(t, 2.0, cfg.Render.ViewScale)
	assert.Equal(t, 10.0, cfg.Render.Near)
	assert.Equal(t, 10000.0, cfg.Render.Far)
	assert.True(t, cfg.Web.Enabled)
	assert.Equal(t, "8090", cfg.Web.Port)
	assert.Equal(t, 100, cfg.Session.Threshold)
	assert.Equal(t, 50, cfg.Session.Scale)

	assert.NoError(t, cfg.Validate())
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arview.yaml")
	body := `
log_level: debug
objects: scenes/desk.yaml
camera:
  device: clip.mp4
  preset: 720p
loop:
  min_interval: 25ms
session:
  threshold: 120
web:
  port: "9000"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "scenes/desk.yaml", cfg.Objects)
	assert.Equal(t, "clip.mp4", cfg.Camera.Device)
	assert.Equal(t, "720p", cfg.Camera.Preset)
	assert.Equal(t, 25*time.Millisecond, cfg.Loop.MinInterval)
	assert.Equal(t, 120, cfg.Session.Threshold)
	assert.Equal(t, "9000", cfg.Web.Port)
	// untouched keys keep their defaults
	assert.Equal(t, 50, cfg.Session.Scale)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ARVIEW_CAMERA_DEVICE", "2")
	t.Setenv("ARVIEW_SESSION_THRESHOLD", "80")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "2", cfg.Camera.Device)
	assert.Equal(t, 80, cfg.Session.Threshold)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/arview.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestValidate(t *testing.T) {
	base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name  string
		mut   func(*Config)
		field string
	}{
		{"missing objects", func(c *Config) { c.Objects = "" }, "objects"},
		{"threshold too high", func(c *Config) { c.Session.Threshold = 256 }, "session.threshold"},
		{"threshold negative", func(c *Config) { c.Session.Threshold = -1 }, "session.threshold"},
		{"scale zero", func(c *Config) { c.Session.Scale = 0 }, "session.scale"},
		{"scale too high", func(c *Config) { c.Session.Scale = 501 }, "session.scale"},
		{"smoothing one", func(c *Config) { c.Tracking.PoseSmoothing = 1 }, "tracking.pose_smoothing"},
		{"far before near", func(c *Config) { c.Render.Far = 5 }, "render.near"},
		{"negative interval", func(c *Config) { c.Loop.MinInterval = -time.Millisecond }, "loop.min_interval"},
		{"web without port", func(c *Config) { c.Web.Port = "" }, "web.port"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mut(&cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var cerr *Error
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tc.field, cerr.Field)
		})
	}
}
