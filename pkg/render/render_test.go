package render

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/teslashibe/go-arview/pkg/pose"
	"github.com/teslashibe/go-arview/pkg/session"
	"github.com/teslashibe/go-arview/pkg/tracking"
)

func neutral() session.Controls {
	return session.Controls{Scale: 100}
}

func tilted() pose.Pose {
	return pose.FromMat4(pose.Translate4(20, -15, 600).Mul(pose.RotateX4(160)).Mul(pose.RotateY4(10)))
}

func TestProjectMatchesIntrinsics(t *testing.T) {
	cam := pose.IntrinsicsFromFOV(640, 480, 60)
	p := tilted()

	for _, vs := range []float64{1, DefaultViewScale} {
		proj := NewProjector(cam, vs, DefaultNear, DefaultFar)
		mv := ModelView(p, vs, neutral())

		for _, v := range []r3.Vector{{}, {X: 40, Y: 40}, {X: -40, Y: 10, Z: 30}} {
			// Model units are marker units times the view scale.
			got, ok := proj.Project(mv, v.Mul(vs))
			if !ok {
				t.Fatalf("vs=%v: %v not projected", vs, v)
			}
			want, _ := cam.Project(p.Apply(v))
			if got.Sub(want).Norm() > 1e-6 {
				t.Errorf("vs=%v: Project(%v) = %v, want %v", vs, v, got, want)
			}
		}
	}
}

func TestProjectRejectsOutsideDepth(t *testing.T) {
	cam := pose.IntrinsicsFromFOV(640, 480, 60)
	proj := NewProjector(cam, 1, DefaultNear, DefaultFar)

	behind := ModelView(pose.FromMat4(pose.Translate4(0, 0, -100)), 1, neutral())
	if _, ok := proj.Project(behind, r3.Vector{}); ok {
		t.Error("point behind the camera should not project")
	}
	tooFar := ModelView(frontal(2*DefaultFar), 1, neutral())
	if _, ok := proj.Project(tooFar, r3.Vector{}); ok {
		t.Error("point past the far plane should not project")
	}
}

func TestFrustumDepthRange(t *testing.T) {
	cam := pose.IntrinsicsFromFOV(640, 480, 60)
	f := Frustum(cam, 10, 10000)

	if z := f.Apply(r3.Vector{Z: -10}).Z; math.Abs(z+1) > 1e-9 {
		t.Errorf("near plane ndc z = %v, want -1", z)
	}
	if z := f.Apply(r3.Vector{Z: -10000}).Z; math.Abs(z-1) > 1e-9 {
		t.Errorf("far plane ndc z = %v, want 1", z)
	}
}

func TestModelViewControls(t *testing.T) {
	p := frontal(500)
	base := ModelView(p, 1, neutral())

	half := ModelView(p, 1, session.Controls{Scale: 50})
	v := r3.Vector{X: 10}
	a := base.Apply(v).Sub(base.Apply(r3.Vector{}))
	b := half.Apply(v).Sub(half.Apply(r3.Vector{}))
	if math.Abs(b.Norm()-a.Norm()/2) > 1e-9 {
		t.Errorf("scale 50 length = %v, want %v", b.Norm(), a.Norm()/2)
	}

	moved := ModelView(p, 1, session.Controls{Scale: 100, TranslateX: 4})
	d := moved.Apply(r3.Vector{}).Sub(base.Apply(r3.Vector{}))
	if math.Abs(d.Norm()-4) > 1e-9 {
		t.Errorf("translate offset = %v, want 4", d.Norm())
	}

	rot := ModelView(p, 1, session.Controls{Scale: 100, RotateZ: 90})
	got := rot.Apply(r3.Vector{X: 1}).Sub(rot.Apply(r3.Vector{}))
	want := base.Apply(r3.Vector{Y: 1}).Sub(base.Apply(r3.Vector{}))
	if got.Sub(want).Norm() > 1e-9 {
		t.Errorf("rotate z 90: x axis maps to %v, want %v", got, want)
	}
}

func TestScene(t *testing.T) {
	proj := NewProjector(pose.IntrinsicsFromFOV(640, 480, 60), DefaultViewScale, DefaultNear, DefaultFar)
	objects := []tracking.TrackedObject{
		{ID: 1, Name: "a", ReferenceSize: 80, RenderHandle: 0, State: tracking.Acquired, Pose: frontal(500)},
		{ID: 2, Name: "hidden", ReferenceSize: 80, RenderHandle: 1, State: tracking.Lost, Pose: frontal(500)},
		{ID: 3, Name: "nomodel", ReferenceSize: 80, RenderHandle: -1, State: tracking.Acquired, Pose: frontal(500)},
		{ID: 4, Name: "b", ReferenceSize: 40, RenderHandle: 2, State: tracking.Acquired, Pose: frontal(700), ReferenceCenter: r2.Point{X: 5}},
	}

	items := proj.Scene(objects, neutral())

	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Name != "a" || items[1].Name != "b" {
		t.Errorf("order = %s, %s, want a, b", items[0].Name, items[1].Name)
	}
	if items[1].Size != 40*DefaultViewScale {
		t.Errorf("size = %v, want %v", items[1].Size, 40*DefaultViewScale)
	}
}

func TestModelsResolve(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	pyramid := write("pyramid.yaml", "shape: pyramid\ncolor: [255, 0, 0]\nheight: 2\n")
	legacy := write("bud.wrl", "#VRML V2.0 utf8\n")
	bad := write("bad.yaml", "shape: teapot\n")

	m := NewModels()

	h := m.Resolve(pyramid)
	if h != 0 {
		t.Errorf("first handle = %d, want 0", h)
	}
	if again := m.Resolve(pyramid); again != h {
		t.Errorf("repeat handle = %d, want %d", again, h)
	}
	model, ok := m.Get(h)
	if !ok || model.Shape != ShapePyramid || model.Height != 2 {
		t.Errorf("model = %+v", model)
	}
	if c := model.RGBA(); c.R != 255 || c.G != 0 {
		t.Errorf("color = %v", c)
	}

	if h := m.Resolve(legacy); h != 1 {
		t.Errorf("legacy handle = %d, want 1", h)
	}
	if model, _ := m.Get(1); model.Shape != ShapeCube {
		t.Errorf("legacy shape = %s, want cube", model.Shape)
	}

	if h := m.Resolve(bad); h != -1 {
		t.Errorf("bad model handle = %d, want -1", h)
	}
	if h := m.Resolve(filepath.Join(dir, "missing.yaml")); h != -1 {
		t.Errorf("missing model handle = %d, want -1", h)
	}
	if m.Len() != 2 {
		t.Errorf("Len = %d, want 2", m.Len())
	}
	if _, ok := m.Get(-1); ok {
		t.Error("Get(-1) should fail")
	}
}

func TestDrawModeCycle(t *testing.T) {
	d := DrawWireframe
	seen := []DrawMode{d}
	for i := 0; i < 3; i++ {
		d = d.Next()
		seen = append(seen, d)
	}
	want := []DrawMode{DrawWireframe, DrawAxes, DrawBoth, DrawWireframe}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("step %d = %v, want %v", i, seen[i], want[i])
		}
	}
}

func TestGlyph(t *testing.T) {
	tests := []struct {
		shape Shape
		want  int
	}{
		{ShapeCube, 12},
		{ShapePyramid, 8},
		{ShapeAxes, 4},
	}
	for _, tt := range tests {
		if got := len(glyph(Model{Shape: tt.shape, Height: 1}, 80)); got != tt.want {
			t.Errorf("%s: %d segments, want %d", tt.shape, got, tt.want)
		}
	}
}
