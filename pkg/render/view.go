// Package render turns tracked objects into drawable scene items and draws
// them over the camera image.
package render

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/teslashibe/go-arview/pkg/pose"
	"github.com/teslashibe/go-arview/pkg/session"
)

// Defaults for the view transform and projection.
const (
	DefaultViewScale = 2.0
	DefaultNear      = 10.0
	DefaultFar       = 10000.0
)

// CameraView converts a marker pose to a right-handed view matrix: Y and Z
// are flipped and the translation is multiplied by viewScale.
func CameraView(p pose.Pose, viewScale float64) pose.Mat4 {
	m := p.Mat4()
	for c := 0; c < 4; c++ {
		m[4+c] = -m[4+c]
		m[8+c] = -m[8+c]
	}
	m[3] *= viewScale
	m[7] *= viewScale
	m[11] *= viewScale
	return m
}

// ModelView is CameraView followed by the session's model adjustments:
// uniform scale Scale/100, translation (TranslateX, TranslateY, 0), then
// rotations about X, Y and Z in degrees.
func ModelView(p pose.Pose, viewScale float64, c session.Controls) pose.Mat4 {
	m := CameraView(p, viewScale)
	m = m.Mul(pose.Scale4(float64(c.Scale) * 0.01))
	m = m.Mul(pose.Translate4(c.TranslateX, c.TranslateY, 0))
	m = m.Mul(pose.RotateX4(c.RotateX))
	m = m.Mul(pose.RotateY4(c.RotateY))
	m = m.Mul(pose.RotateZ4(c.RotateZ))
	return m
}

// Frustum returns an OpenGL-style projection matching the camera intrinsics.
func Frustum(in pose.Intrinsics, near, far float64) pose.Mat4 {
	w, h := float64(in.Width), float64(in.Height)
	return pose.Mat4{
		2 * in.Fx / w, 0, 1 - 2*in.Cx/w, 0,
		0, 2 * in.Fy / h, 2*in.Cy/h - 1, 0,
		0, 0, -(far + near) / (far - near), -2 * far * near / (far - near),
		0, 0, -1, 0,
	}
}

// Projector maps model-space points of scene items to image pixels.
type Projector struct {
	Camera     pose.Intrinsics
	ViewScale  float64
	Near, Far  float64
	projection pose.Mat4
}

// NewProjector creates a projector for the given camera.
func NewProjector(camera pose.Intrinsics, viewScale, near, far float64) *Projector {
	if viewScale <= 0 {
		viewScale = DefaultViewScale
	}
	if near <= 0 || far <= near {
		near, far = DefaultNear, DefaultFar
	}
	return &Projector{
		Camera:     camera,
		ViewScale:  viewScale,
		Near:       near,
		Far:        far,
		projection: Frustum(camera, near, far),
	}
}

// SetCamera replaces the intrinsics after a capture size change.
func (p *Projector) SetCamera(camera pose.Intrinsics) {
	p.Camera = camera
	p.projection = Frustum(camera, p.Near, p.Far)
}

// Projection returns the projection matrix.
func (p *Projector) Projection() pose.Mat4 {
	return p.projection
}

// Project maps a model-space point through modelView to pixels. ok is false
// for points outside the depth range.
func (p *Projector) Project(modelView pose.Mat4, v r3.Vector) (r2.Point, bool) {
	eye := modelView.Apply(v)
	if -eye.Z < p.Near || -eye.Z > p.Far {
		return r2.Point{}, false
	}
	ndc := p.projection.Apply(eye)
	return r2.Point{
		X: (ndc.X + 1) * float64(p.Camera.Width) / 2,
		Y: (1 - ndc.Y) * float64(p.Camera.Height) / 2,
	}, true
}

// frontal is a marker facing the camera at distance z.
func frontal(z float64) pose.Pose {
	return pose.FromMat4(pose.Translate4(0, 0, z).Mul(pose.RotateX4(180)))
}
