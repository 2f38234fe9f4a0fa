// Package objects loads the tracked-object descriptor.
package objects

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/geo/r2"
	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-arview/pkg/pose"
	"github.com/teslashibe/go-arview/pkg/tracking"
)

// ErrMalformed is wrapped by every content error returned from Load.
var ErrMalformed = errors.New("malformed object descriptor")

// ModelResolver maps a model path to a render handle, or -1 when the model
// cannot be used.
type ModelResolver interface {
	Resolve(path string) int
}

// ResolverFunc adapts a function to ModelResolver.
type ResolverFunc func(path string) int

// Resolve calls f(path).
func (f ResolverFunc) Resolve(path string) int { return f(path) }

// Entry is one object as written in the descriptor.
type Entry struct {
	Name     string    `yaml:"name" json:"name"`
	MarkerID int       `yaml:"marker_id" json:"marker_id"`
	Size     float64   `yaml:"size" json:"size"`
	Center   []float64 `yaml:"center" json:"center"`
	Model    string    `yaml:"model" json:"model"`
}

type document struct {
	Objects []Entry `yaml:"objects"`
}

// Load reads the descriptor at path and returns the objects in file order,
// all in the Lost state. YAML/JSON is selected by extension; anything else is
// read as the legacy text format.
func Load(path string, models ModelResolver) ([]tracking.TrackedObject, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open object descriptor: %w", err)
	}

	var entries []Entry
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		entries, err = parseYAML(data)
	default:
		entries, err = parseLegacy(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%s: %w: no objects", path, ErrMalformed)
	}

	base := filepath.Dir(path)
	objects := make([]tracking.TrackedObject, 0, len(entries))
	for i, e := range entries {
		obj, err := e.object(base, models)
		if err != nil {
			return nil, fmt.Errorf("%s: object %d: %w", path, i+1, err)
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

func (e Entry) object(base string, models ModelResolver) (tracking.TrackedObject, error) {
	if !finite(e.Size) || e.Size <= 0 {
		return tracking.TrackedObject{}, fmt.Errorf("%w: size %v must be positive and finite", ErrMalformed, e.Size)
	}
	if e.MarkerID < 0 {
		return tracking.TrackedObject{}, fmt.Errorf("%w: marker id %d must not be negative", ErrMalformed, e.MarkerID)
	}

	var center r2.Point
	switch len(e.Center) {
	case 0:
	case 2:
		if !finite(e.Center[0]) || !finite(e.Center[1]) {
			return tracking.TrackedObject{}, fmt.Errorf("%w: center %v must be finite", ErrMalformed, e.Center)
		}
		center = r2.Point{X: e.Center[0], Y: e.Center[1]}
	default:
		return tracking.TrackedObject{}, fmt.Errorf("%w: center needs 2 values, got %d", ErrMalformed, len(e.Center))
	}

	name := e.Name
	if name == "" {
		name = fmt.Sprintf("marker-%d", e.MarkerID)
	}

	handle := -1
	if e.Model != "" && models != nil {
		model := e.Model
		if !filepath.IsAbs(model) {
			model = filepath.Join(base, model)
		}
		handle = models.Resolve(model)
	}

	return tracking.TrackedObject{
		ID:              e.MarkerID,
		Name:            name,
		ReferenceSize:   e.Size,
		ReferenceCenter: center,
		RenderHandle:    handle,
		Pose:            pose.Identity(),
		State:           tracking.Lost,
	}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func parseYAML(data []byte) ([]Entry, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return doc.Objects, nil
}

// parseLegacy reads:
//
//	<count>
//	<kind> <model path>
//	<marker id>
//	<marker width>
//	<center x> <center y>
//
// repeated count times. '#' lines and blank lines are skipped.
func parseLegacy(data []byte) ([]Entry, error) {
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrMalformed)
	}

	count, err := strconv.Atoi(lines[0])
	if err != nil || count < 0 {
		return nil, fmt.Errorf("%w: bad object count %q", ErrMalformed, lines[0])
	}
	lines = lines[1:]
	if len(lines) != count*4 {
		return nil, fmt.Errorf("%w: count says %d objects, found %d lines of entries", ErrMalformed, count, len(lines))
	}

	entries := make([]Entry, 0, count)
	for i := 0; i < count; i++ {
		block := lines[i*4 : i*4+4]

		fields := strings.Fields(block[0])
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: object %d: expected \"<kind> <model>\", got %q", ErrMalformed, i+1, block[0])
		}
		id, err := strconv.Atoi(block[1])
		if err != nil {
			return nil, fmt.Errorf("%w: object %d: marker id %q", ErrMalformed, i+1, block[1])
		}
		size, err := strconv.ParseFloat(block[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: object %d: width %q", ErrMalformed, i+1, block[2])
		}
		xy := strings.Fields(block[3])
		if len(xy) != 2 {
			return nil, fmt.Errorf("%w: object %d: center %q", ErrMalformed, i+1, block[3])
		}
		cx, errX := strconv.ParseFloat(xy[0], 64)
		cy, errY := strconv.ParseFloat(xy[1], 64)
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("%w: object %d: center %q", ErrMalformed, i+1, block[3])
		}

		model := fields[1]
		entries = append(entries, Entry{
			Name:     strings.TrimSuffix(filepath.Base(model), filepath.Ext(model)),
			MarkerID: id,
			Size:     size,
			Center:   []float64{cx, cy},
			Model:    model,
		})
	}
	return entries, nil
}
