package tracking

import "fmt"

// Config holds the tunable parameters of the association engine.
type Config struct {
	// PoseSmoothing is the weight of the fresh estimate when an object stays
	// acquired, strictly between 0 and 1 (higher = trust new data more).
	PoseSmoothing float64
}

// DefaultConfig returns the recommended configuration.
func DefaultConfig() Config {
	return Config{
		PoseSmoothing: 0.6, // 60% new, 40% previous
	}
}

// SmoothConfig returns a configuration for steadier, laggier overlays.
func SmoothConfig() Config {
	cfg := DefaultConfig()
	cfg.PoseSmoothing = 0.3
	return cfg
}

// ResponsiveConfig returns a configuration that follows fast motion closely.
func ResponsiveConfig() Config {
	cfg := DefaultConfig()
	cfg.PoseSmoothing = 0.85
	return cfg
}

// ConfigByName resolves a preset name. Empty selects the default.
func ConfigByName(name string) (Config, error) {
	switch name {
	case "", "default":
		return DefaultConfig(), nil
	case "smooth":
		return SmoothConfig(), nil
	case "responsive":
		return ResponsiveConfig(), nil
	default:
		return Config{}, fmt.Errorf("unknown tracking preset %q", name)
	}
}

// Validate reports whether the configuration is usable.
func (c Config) Validate() error {
	// At 1 the previous pose would drop out of the continuity estimate.
	if !(c.PoseSmoothing > 0 && c.PoseSmoothing < 1) {
		return fmt.Errorf("pose smoothing %.2f out of range (0, 1)", c.PoseSmoothing)
	}
	return nil
}
