package objects

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-arview/pkg/tracking"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// knownModels resolves any path ending in "cube.yaml" to handle 3.
var knownModels = ResolverFunc(func(path string) int {
	if filepath.Base(path) == "cube.yaml" {
		return 3
	}
	return -1
})

func TestLoadYAML(t *testing.T) {
	path := write(t, "objects.yaml", `
objects:
  - name: hiro
    marker_id: 5
    size: 80
    center: [0, 0]
    model: models/cube.yaml
  - name: kanji
    marker_id: 5
    size: 40
    center: [10, -5]
    model: models/missing.yaml
  - marker_id: 9
    size: 60
`)

	objs, err := Load(path, knownModels)
	require.NoError(t, err)
	require.Len(t, objs, 3)

	assert.Equal(t, "hiro", objs[0].Name)
	assert.Equal(t, 5, objs[0].ID)
	assert.Equal(t, 80.0, objs[0].ReferenceSize)
	assert.Equal(t, 3, objs[0].RenderHandle)

	assert.Equal(t, r2.Point{X: 10, Y: -5}, objs[1].ReferenceCenter)
	assert.Equal(t, -1, objs[1].RenderHandle, "missing model gives no handle")

	assert.Equal(t, "marker-9", objs[2].Name)
	assert.Equal(t, -1, objs[2].RenderHandle, "no model declared")

	for _, o := range objs {
		assert.Equal(t, tracking.Lost, o.State)
		assert.False(t, o.Visible())
	}
}

func TestLoadJSON(t *testing.T) {
	path := write(t, "objects.json", `{"objects": [{"name": "a", "marker_id": 1, "size": 50, "center": [1, 2]}]}`)

	objs, err := Load(path, nil)
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, r2.Point{X: 1, Y: 2}, objs[0].ReferenceCenter)
}

func TestLoadLegacy(t *testing.T) {
	path := write(t, "object_data", `#the number of patterns to be recognized
2

#pattern 1
VRML models/cube.yaml
5
80.0
0.0 0.0

#pattern 2
VRML models/other.wrl
7
40.0
10.0 -5.0
`)

	objs, err := Load(path, knownModels)
	require.NoError(t, err)
	require.Len(t, objs, 2)

	assert.Equal(t, "cube", objs[0].Name)
	assert.Equal(t, 5, objs[0].ID)
	assert.Equal(t, 3, objs[0].RenderHandle)
	assert.Equal(t, 7, objs[1].ID)
	assert.Equal(t, 40.0, objs[1].ReferenceSize)
	assert.Equal(t, r2.Point{X: 10, Y: -5}, objs[1].ReferenceCenter)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"empty yaml list", "o.yaml", "objects: []\n"},
		{"unknown field", "o.yaml", "objects:\n  - marker_id: 1\n    size: 10\n    colour: red\n"},
		{"zero size", "o.yaml", "objects:\n  - marker_id: 1\n    size: 0\n"},
		{"infinite size", "o.yaml", "objects:\n  - marker_id: 1\n    size: .inf\n"},
		{"nan size", "o.yaml", "objects:\n  - marker_id: 1\n    size: .nan\n"},
		{"infinite center", "o.yaml", "objects:\n  - marker_id: 1\n    size: 10\n    center: [0, -.inf]\n"},
		{"nan center in json file", "o.json", `{"objects": [{"marker_id": 1, "size": 10, "center": [.nan, 0]}]}`},
		{"negative id", "o.yaml", "objects:\n  - marker_id: -2\n    size: 10\n"},
		{"bad center", "o.yaml", "objects:\n  - marker_id: 1\n    size: 10\n    center: [1]\n"},
		{"not yaml", "o.yaml", "objects: [\n"},
		{"legacy empty", "o.dat", "# nothing\n\n"},
		{"legacy bad count", "o.dat", "two\n"},
		{"legacy count mismatch", "o.dat", "2\nVRML a.wrl\n1\n80\n0 0\n"},
		{"legacy bad id", "o.dat", "1\nVRML a.wrl\nx\n80\n0 0\n"},
		{"legacy bad width", "o.dat", "1\nVRML a.wrl\n1\nwide\n0 0\n"},
		{"legacy nan width", "o.dat", "1\nVRML a.wrl\n1\nNaN\n0 0\n"},
		{"legacy inf width", "o.dat", "1\nVRML a.wrl\n1\nInf\n0 0\n"},
		{"legacy nan center", "o.dat", "1\nVRML a.wrl\n1\n80\nNaN 0\n"},
		{"legacy bad center", "o.dat", "1\nVRML a.wrl\n1\n80\n0\n"},
		{"legacy bad model line", "o.dat", "1\na.wrl\n1\n80\n0 0\n"},
		{"legacy zero count", "o.dat", "0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(write(t, tt.file, tt.content), nil)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NotErrorIs(t, err, ErrMalformed)
}
