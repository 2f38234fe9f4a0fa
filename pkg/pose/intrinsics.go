package pose

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gopkg.in/yaml.v3"
)

// ErrIntrinsics is returned for unusable camera parameters.
var ErrIntrinsics = errors.New("invalid camera intrinsics")

// Intrinsics is a pinhole camera model without distortion.
type Intrinsics struct {
	Width  int     `yaml:"width" json:"width"`
	Height int     `yaml:"height" json:"height"`
	Fx     float64 `yaml:"fx" json:"fx"`
	Fy     float64 `yaml:"fy" json:"fy"`
	Cx     float64 `yaml:"cx" json:"cx"`
	Cy     float64 `yaml:"cy" json:"cy"`
}

// IntrinsicsFromFOV derives intrinsics from an image size and horizontal FOV
// in degrees, with square pixels and a centred principal point.
func IntrinsicsFromFOV(width, height int, hfovDeg float64) Intrinsics {
	f := float64(width) / 2 / math.Tan(hfovDeg*math.Pi/360)
	return Intrinsics{
		Width:  width,
		Height: height,
		Fx:     f,
		Fy:     f,
		Cx:     float64(width) / 2,
		Cy:     float64(height) / 2,
	}
}

// LoadIntrinsics reads a YAML camera parameter file.
func LoadIntrinsics(path string) (Intrinsics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Intrinsics{}, fmt.Errorf("load camera parameters %s: %w", path, err)
	}

	var in Intrinsics
	if err := yaml.Unmarshal(data, &in); err != nil {
		return Intrinsics{}, fmt.Errorf("parse camera parameters %s: %w", path, err)
	}
	if err := in.Validate(); err != nil {
		return Intrinsics{}, fmt.Errorf("camera parameters %s: %w", path, err)
	}
	return in, nil
}

// Validate checks the parameters are usable for projection.
func (in Intrinsics) Validate() error {
	if in.Width <= 0 || in.Height <= 0 {
		return fmt.Errorf("%w: image size %dx%d", ErrIntrinsics, in.Width, in.Height)
	}
	if in.Fx <= 0 || in.Fy <= 0 {
		return fmt.Errorf("%w: focal length (%.2f, %.2f)", ErrIntrinsics, in.Fx, in.Fy)
	}
	return nil
}

// Scaled adapts the parameters to a different capture size.
func (in Intrinsics) Scaled(width, height int) Intrinsics {
	if in.Width == width && in.Height == height {
		return in
	}
	sx := float64(width) / float64(in.Width)
	sy := float64(height) / float64(in.Height)
	return Intrinsics{
		Width:  width,
		Height: height,
		Fx:     in.Fx * sx,
		Fy:     in.Fy * sy,
		Cx:     in.Cx * sx,
		Cy:     in.Cy * sy,
	}
}

// Normalize maps a pixel to normalized image coordinates.
func (in Intrinsics) Normalize(p r2.Point) r2.Point {
	return r2.Point{X: (p.X - in.Cx) / in.Fx, Y: (p.Y - in.Cy) / in.Fy}
}

// Project maps a camera-space point to pixels. ok is false behind the camera.
func (in Intrinsics) Project(v r3.Vector) (r2.Point, bool) {
	if v.Z <= 0 {
		return r2.Point{}, false
	}
	return r2.Point{
		X: in.Fx*v.X/v.Z + in.Cx,
		Y: in.Fy*v.Y/v.Z + in.Cy,
	}, true
}
