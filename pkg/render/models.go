package render

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-arview/internal/log"
)

// Shape is the glyph used to draw a model.
type Shape string

const (
	ShapeCube    Shape = "cube"
	ShapePyramid Shape = "pyramid"
	ShapeAxes    Shape = "axes"
)

// Model describes how a resolved model is drawn.
type Model struct {
	Path   string  `yaml:"-" json:"path"`
	Shape  Shape   `yaml:"shape" json:"shape"`
	Color  []uint8 `yaml:"color" json:"color"`   // RGB
	Height float64 `yaml:"height" json:"height"` // relative to marker width
}

// RGBA returns the draw colour.
func (m Model) RGBA() color.RGBA {
	if len(m.Color) != 3 {
		return color.RGBA{R: 0, G: 200, B: 255, A: 255}
	}
	return color.RGBA{R: m.Color[0], G: m.Color[1], B: m.Color[2], A: 255}
}

func defaultModel(path string) Model {
	return Model{Path: path, Shape: ShapeCube, Height: 1}
}

// Models maps model files to render handles.
type Models struct {
	mu      sync.RWMutex
	handles map[string]int
	models  []Model
}

// NewModels creates an empty registry.
func NewModels() *Models {
	return &Models{handles: make(map[string]int)}
}

// Resolve loads the model at path and returns its handle, or -1 when the file
// is missing or unreadable. Repeated paths share a handle. YAML files
// describe the glyph; any other existing file is drawn as a cube.
func (m *Models) Resolve(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.handles[path]; ok {
		return h
	}

	model, err := loadModel(path)
	if err != nil {
		log.Warn("model unavailable, object will not be drawn", "path", path, "error", err)
		return -1
	}

	h := len(m.models)
	m.models = append(m.models, model)
	m.handles[path] = h
	return h
}

// Get returns the model for a handle.
func (m *Models) Get(handle int) (Model, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if handle < 0 || handle >= len(m.models) {
		return Model{}, false
	}
	return m.models[handle], true
}

// Len returns the number of resolved models.
func (m *Models) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.models)
}

func loadModel(path string) (Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Model{}, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
	default:
		return defaultModel(path), nil
	}

	model := defaultModel(path)
	if err := yaml.Unmarshal(data, &model); err != nil {
		return Model{}, fmt.Errorf("parse model: %w", err)
	}
	switch model.Shape {
	case ShapeCube, ShapePyramid, ShapeAxes:
	default:
		return Model{}, fmt.Errorf("unknown shape %q", model.Shape)
	}
	if model.Height <= 0 {
		model.Height = 1
	}
	return model, nil
}
