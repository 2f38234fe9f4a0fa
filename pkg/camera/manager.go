package camera

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrDeviceChange is returned when an update tries to switch the capture device.
var ErrDeviceChange = errors.New("capture device cannot be changed while running")

// Update is a partial change to the capture settings. The preset, if any, is
// applied first and the explicit fields override it.
type Update struct {
	Preset    *string `json:"preset,omitempty"`
	Width     *int    `json:"width,omitempty"`
	Height    *int    `json:"height,omitempty"`
	Framerate *int    `json:"framerate,omitempty"`
}

// Manager owns the live capture settings. Changes are validated and then
// pushed to the source through OnConfigChange.
type Manager struct {
	mu     sync.RWMutex
	config Config

	// OnConfigChange applies a new configuration to the running source.
	OnConfigChange func(cfg Config) error
}

// NewManager creates a manager starting from cfg.
func NewManager(cfg Config) *Manager {
	return &Manager{config: cfg}
}

// Config returns the current settings.
func (m *Manager) Config() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Set validates and applies cfg. The stored settings only change when the
// callback accepts them.
func (m *Manager) Set(cfg Config) error {
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid camera config: %s", strings.Join(errs, "; "))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if cfg.Device != m.config.Device {
		return ErrDeviceChange
	}
	if cfg == m.config {
		return nil
	}
	if m.OnConfigChange != nil {
		if err := m.OnConfigChange(cfg); err != nil {
			return fmt.Errorf("apply camera config: %w", err)
		}
	}
	m.config = cfg
	return nil
}

// Apply merges u into the current settings and sets the result.
func (m *Manager) Apply(u Update) (Config, error) {
	cfg := m.Config()

	if u.Preset != nil {
		p, err := LookupPreset(*u.Preset)
		if err != nil {
			return cfg, err
		}
		cfg = p.Apply(cfg)
	}
	if u.Width != nil {
		cfg.Width = *u.Width
	}
	if u.Height != nil {
		cfg.Height = *u.Height
	}
	if u.Framerate != nil {
		cfg.Framerate = *u.Framerate
	}

	if err := m.Set(cfg); err != nil {
		return m.Config(), err
	}
	return cfg, nil
}
