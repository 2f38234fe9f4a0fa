package pose

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// PlanarEstimator recovers a marker pose from its four image corners.
type PlanarEstimator struct {
	Camera Intrinsics

	// Smoothing is the weight of the new estimate in EstimateCont (0-1).
	Smoothing float64
}

// NewPlanarEstimator creates an estimator for the given camera.
func NewPlanarEstimator(camera Intrinsics, smoothing float64) *PlanarEstimator {
	return &PlanarEstimator{Camera: camera, Smoothing: smoothing}
}

// ModelCorners returns the marker-plane corners (Z = 0) matching image corners
// clockwise from top-left. Marker Y points up.
func ModelCorners(center r2.Point, size float64) [4]r3.Vector {
	h := size / 2
	return [4]r3.Vector{
		{X: center.X - h, Y: center.Y + h},
		{X: center.X + h, Y: center.Y + h},
		{X: center.X + h, Y: center.Y - h},
		{X: center.X - h, Y: center.Y - h},
	}
}

// Estimate computes a pose from the detection alone. It returns the pose and
// the RMS reprojection error in pixels.
func (e *PlanarEstimator) Estimate(corners [4]r2.Point, center r2.Point, size float64) (Pose, float64) {
	h := e.homography(corners, center, size)
	p := decompose(h)
	return p, e.Residual(p, corners, center, size)
}

// EstimateCont computes a pose seeded by the previous frame's pose: the fresh
// estimate is blended with prev and re-orthonormalized.
func (e *PlanarEstimator) EstimateCont(corners [4]r2.Point, prev Pose, center r2.Point, size float64) (Pose, float64) {
	fresh, _ := e.Estimate(corners, center, size)
	p := Blend(prev, fresh, e.Smoothing)
	return p, e.Residual(p, corners, center, size)
}

// Blend interpolates from a towards b by alpha (0 = a, 1 = b).
func Blend(a, b Pose, alpha float64) Pose {
	r := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r.Set(i, j, alpha*b[i][j]+(1-alpha)*a[i][j])
		}
	}
	t := b.Translation().Mul(alpha).Add(a.Translation().Mul(1 - alpha))
	return FromRT(orthonormalize(r), t)
}

// Residual is the RMS pixel distance between projected model corners and the
// observed corners.
func (e *PlanarEstimator) Residual(p Pose, corners [4]r2.Point, center r2.Point, size float64) float64 {
	model := ModelCorners(center, size)
	var sum float64
	for i := range model {
		px, ok := e.Camera.Project(p.Apply(model[i]))
		if !ok {
			return math.Inf(1)
		}
		d := px.Sub(corners[i])
		sum += d.Dot(d)
	}
	return math.Sqrt(sum / 4)
}

// homography solves the plane-to-normalized-image homography by DLT.
// Model points are centred and scaled by size for conditioning.
func (e *PlanarEstimator) homography(corners [4]r2.Point, center r2.Point, size float64) *mat.Dense {
	model := ModelCorners(center, size)

	a := mat.NewDense(8, 9, nil)
	for i := 0; i < 4; i++ {
		x := (model[i].X - center.X) / size
		y := (model[i].Y - center.Y) / size
		n := e.Camera.Normalize(corners[i])

		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -n.X * x, -n.X * y, -n.X})
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -n.Y * x, -n.Y * y, -n.Y})
	}

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDFull) {
		return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	}
	var v mat.Dense
	svd.VTo(&v)

	hs := mat.NewDense(3, 3, nil)
	for i := 0; i < 9; i++ {
		hs.Set(i/3, i%3, v.At(i, 8))
	}

	// Undo the conditioning: H = Hs * S, S maps model coords to scaled coords.
	s := mat.NewDense(3, 3, []float64{
		1 / size, 0, -center.X / size,
		0, 1 / size, -center.Y / size,
		0, 0, 1,
	})
	var h mat.Dense
	h.Mul(hs, s)
	return &h
}

// decompose splits a plane homography into [R|t].
func decompose(h *mat.Dense) Pose {
	h1 := r3.Vector{X: h.At(0, 0), Y: h.At(1, 0), Z: h.At(2, 0)}
	h2 := r3.Vector{X: h.At(0, 1), Y: h.At(1, 1), Z: h.At(2, 1)}
	h3 := r3.Vector{X: h.At(0, 2), Y: h.At(1, 2), Z: h.At(2, 2)}

	lambda := 2 / (h1.Norm() + h2.Norm())
	if h3.Z*lambda < 0 {
		lambda = -lambda
	}

	r1 := h1.Mul(lambda)
	r2 := h2.Mul(lambda)
	r3v := r1.Cross(r2)
	t := h3.Mul(lambda)

	r := mat.NewDense(3, 3, []float64{
		r1.X, r2.X, r3v.X,
		r1.Y, r2.Y, r3v.Y,
		r1.Z, r2.Z, r3v.Z,
	})
	return FromRT(orthonormalize(r), t)
}
