// Package config loads go-arview runtime configuration.
// Values come from defaults, an optional YAML/JSON file and ARVIEW_* env vars,
// in increasing priority. Flag overrides are applied by cmd/arview.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides (ARVIEW_CAMERA_DEVICE, ...).
const EnvPrefix = "ARVIEW"

// Config holds all configuration for the viewer.
type Config struct {
	LogLevel   string `mapstructure:"log_level"`
	Objects    string `mapstructure:"objects"`    // object descriptor path
	Intrinsics string `mapstructure:"intrinsics"` // camera parameter file, empty = derive from FOV

	Camera   CameraConfig   `mapstructure:"camera"`
	Detector DetectorConfig `mapstructure:"detector"`
	Tracking TrackingConfig `mapstructure:"tracking"`
	Loop     LoopConfig     `mapstructure:"loop"`
	Render   RenderConfig   `mapstructure:"render"`
	Web      WebConfig      `mapstructure:"web"`
	Session  SessionConfig  `mapstructure:"session"`
}

// CameraConfig selects and sizes the capture device.
type CameraConfig struct {
	Device     string  `mapstructure:"device"` // index ("0") or video file path
	Preset     string  `mapstructure:"preset"`
	Width      int     `mapstructure:"width"`
	Height     int     `mapstructure:"height"`
	Framerate  int     `mapstructure:"framerate"`
	FOVDegrees float64 `mapstructure:"fov_degrees"`
}

// DetectorConfig configures the ArUco backend.
type DetectorConfig struct {
	Dictionary string `mapstructure:"dictionary"`
}

// TrackingConfig configures pose continuity.
type TrackingConfig struct {
	Preset        string  `mapstructure:"preset"`
	PoseSmoothing float64 `mapstructure:"pose_smoothing"` // 0 = use preset
}

// LoopConfig configures the frame loop.
type LoopConfig struct {
	MinInterval time.Duration `mapstructure:"min_interval"`
}

// RenderConfig configures presentation.
type RenderConfig struct {
	Window    bool    `mapstructure:"window"`
	ViewScale float64 `mapstructure:"view_scale"`
	Near      float64 `mapstructure:"near"`
	Far       float64 `mapstructure:"far"`
}

// WebConfig configures the control/status server.
type WebConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    string `mapstructure:"port"`
}

// SessionConfig holds the initial interactive parameters.
type SessionConfig struct {
	Threshold int `mapstructure:"threshold"`
	Scale     int `mapstructure:"scale"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("objects", "Data/object_data.yaml")
	v.SetDefault("intrinsics", "Data/camera_para.yaml")

	v.SetDefault("camera.device", "0")
	v.SetDefault("camera.preset", "default")
	v.SetDefault("camera.width", 0)
	v.SetDefault("camera.height", 0)
	v.SetDefault("camera.framerate", 0)
	v.SetDefault("camera.fov_degrees", 60.0)

	v.SetDefault("detector.dictionary", "4x4_50")

	v.SetDefault("tracking.preset", "default")
	v.SetDefault("tracking.pose_smoothing", 0.0)

	v.SetDefault("loop.min_interval", "10ms")

	v.SetDefault("render.window", true)
	v.SetDefault("render.view_scale", 2.0)
	v.SetDefault("render.near", 10.0)
	v.SetDefault("render.far", 10000.0)

	v.SetDefault("web.enabled", true)
	v.SetDefault("web.port", "8090")

	v.SetDefault("session.threshold", 100)
	v.SetDefault("session.scale", 50)
}

// Load reads configuration. path may be empty, in which case only defaults and
// environment variables apply.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Validate checks the values that would otherwise fail deep inside setup.
func (c *Config) Validate() error {
	if c.Objects == "" {
		return &Error{Field: "objects", Message: "object descriptor path is required"}
	}
	if c.Session.Threshold < 0 || c.Session.Threshold > 255 {
		return &Error{Field: "session.threshold", Message: "threshold must be between 0 and 255"}
	}
	if c.Session.Scale < 1 || c.Session.Scale > 500 {
		return &Error{Field: "session.scale", Message: "scale must be between 1 and 500"}
	}
	if c.Tracking.PoseSmoothing < 0 || c.Tracking.PoseSmoothing >= 1 {
		return &Error{Field: "tracking.pose_smoothing", Message: "pose_smoothing must be in [0, 1)"}
	}
	if c.Render.Near <= 0 || c.Render.Far <= c.Render.Near {
		return &Error{Field: "render.near", Message: "render near/far must satisfy 0 < near < far"}
	}
	if c.Loop.MinInterval < 0 {
		return &Error{Field: "loop.min_interval", Message: "min_interval must not be negative"}
	}
	if c.Web.Enabled && c.Web.Port == "" {
		return &Error{Field: "web.port", Message: "web.port is required when the web server is enabled"}
	}
	return nil
}

// Error represents a configuration validation error.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Field + ": " + e.Message
}
